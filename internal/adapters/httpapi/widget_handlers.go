package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/resolvd/internal/ports/primary"
)

type identifyBody struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	OrderNumber string `json:"orderNumber"`
}

type selectOrderBody struct {
	OrderID string `json:"orderId"`
}

type selectItemsBody struct {
	ItemIDs []string `json:"itemIds"`
}

type selectIntentBody struct {
	Intent string `json:"intent"`
}

func (s *Server) handleIntents(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, "", s.resolution.Intents())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolution.StartSession(r.Context())
	s.writeView(w, r, http.StatusCreated, view, err)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolution.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var body identifyBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.resolution.Identify(r.Context(), primary.IdentifyRequest{
		SessionID:   chi.URLParam(r, "sessionID"),
		Email:       body.Email,
		Phone:       body.Phone,
		Name:        body.Name,
		OrderNumber: body.OrderNumber,
	})
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleSelectOrder(w http.ResponseWriter, r *http.Request) {
	var body selectOrderBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.resolution.SelectOrder(r.Context(), chi.URLParam(r, "sessionID"), body.OrderID)
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleSelectItems(w http.ResponseWriter, r *http.Request) {
	var body selectItemsBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.resolution.SelectItems(r.Context(), chi.URLParam(r, "sessionID"), body.ItemIDs)
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleSelectIntent(w http.ResponseWriter, r *http.Request) {
	var body selectIntentBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.resolution.SelectIntent(r.Context(), chi.URLParam(r, "sessionID"), body.Intent)
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolution.Accept(r.Context(), chi.URLParam(r, "sessionID"))
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolution.Decline(r.Context(), chi.URLParam(r, "sessionID"))
	s.writeView(w, r, http.StatusOK, view, err)
}

func (s *Server) handleRetryEmission(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolution.RetryEmission(r.Context(), chi.URLParam(r, "sessionID"))
	s.writeView(w, r, http.StatusOK, view, err)
}

// writeView writes a session view. On error the view, when present, still
// travels with the error so the widget keeps the preserved outcome.
func (s *Server) writeView(w http.ResponseWriter, r *http.Request, status int, view *primary.SessionView, err error) {
	if err != nil {
		var data any
		if view != nil {
			data = view
		}
		writeServiceError(r.Context(), w, err, data)
		return
	}
	writeSuccess(r.Context(), w, status, view.Message, view)
}
