package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/supportcase"
	"github.com/example/resolvd/internal/ports/primary"
)

type statusBody struct {
	Status supportcase.Status `json:"status"`
}

type assignBody struct {
	Assignee string `json:"assignee"`
}

type commentBody struct {
	Body string `json:"body"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cases.Stats(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "", stats)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := primary.CaseFilters{
		Status:         q.Get("status"),
		CaseType:       q.Get("caseType"),
		ResolutionType: q.Get("resolutionType"),
		CustomerEmail:  q.Get("email"),
		Assignee:       q.Get("assignee"),
	}
	var err error
	if filters.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filters.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	cases, err := s.cases.ListCases(r.Context(), filters)
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "", cases)
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req casefile.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.cases.CreateCase(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusCreated, "case created", resp)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.cases.GetCase(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "", c)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.cases.UpdateStatus(r.Context(), chi.URLParam(r, "caseID"), body.Status)
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "status updated", c)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body assignBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.cases.Assign(r.Context(), chi.URLParam(r, "caseID"), body.Assignee)
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "assignee updated", c)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.cases.ListComments(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "", comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var body commentBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	comment, err := s.cases.AddComment(r.Context(), chi.URLParam(r, "caseID"), body.Body)
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusCreated, "comment added", comment)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cases.Timeline(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		writeServiceError(r.Context(), w, err, nil)
		return
	}
	writeSuccess(r.Context(), w, http.StatusOK, "", entries)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
