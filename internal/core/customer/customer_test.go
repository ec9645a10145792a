package customer

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        Identity
		want      Identity
		wantField string
	}{
		{
			name: "email only",
			in:   Identity{Email: "  Jane.Doe@Example.COM "},
			want: Identity{Email: "jane.doe@example.com"},
		},
		{
			name: "full identity",
			in:   Identity{Email: "a@b.co", Phone: "+1 (555) 010-9999", Name: " Jane ", OrderNumber: "#1001"},
			want: Identity{Email: "a@b.co", Phone: "+15550109999", Name: "Jane", OrderNumber: "#1001"},
		},
		{name: "missing email", in: Identity{Phone: "5550109999"}, wantField: "email"},
		{name: "bad email", in: Identity{Email: "jane@"}, wantField: "email"},
		{name: "short phone", in: Identity{Email: "a@b.co", Phone: "12-34"}, wantField: "phone"},
		{name: "letters only phone", in: Identity{Email: "a@b.co", Phone: "call me"}, wantField: "phone"},
		{name: "bad order number", in: Identity{Email: "a@b.co", OrderNumber: "#1 001; drop"}, wantField: "orderNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantField != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize = %+v, want %+v", got, tt.want)
			}
		})
	}
}
