package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   "registration r-1 not found",
		Instance: "/api/v1/admin/registrations/r-1",
	})

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q, want %q", ct, "application/problem+json")
	}

	var p Problem
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if p.Detail != "registration r-1 not found" {
		t.Errorf("detail = %q", p.Detail)
	}
	if p.Instance != "/api/v1/admin/registrations/r-1" {
		t.Errorf("instance = %q", p.Instance)
	}
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, string, string)
		status   int
		wantType string
	}{
		{"not found", NotFound, http.StatusNotFound, ProblemTypeNotFound},
		{"bad request", BadRequest, http.StatusBadRequest, ProblemTypeBadRequest},
		{"internal", InternalError, http.StatusInternalServerError, ProblemTypeInternal},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, ProblemTypeUnauthorized},
		{"forbidden", Forbidden, http.StatusForbidden, ProblemTypeForbidden},
		{"conflict", Conflict, http.StatusConflict, ProblemTypeConflict},
		{"rate limited", RateLimited, http.StatusTooManyRequests, ProblemTypeRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w, "detail", "/test")

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var p Problem
			if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if p.Type != tt.wantType {
				t.Errorf("type = %q, want %q", p.Type, tt.wantType)
			}
			if p.Status != tt.status {
				t.Errorf("body status = %d, want %d", p.Status, tt.status)
			}
		})
	}
}

func TestUnauthorized_SetsChallenge(t *testing.T) {
	w := httptest.NewRecorder()
	Unauthorized(w, "no token", "/test")
	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("WWW-Authenticate header not set")
	}
}

func TestWriteProblem_OmitsEmptyOptionalFields(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, Problem{
		Type:   ProblemTypeInternal,
		Title:  "Internal Server Error",
		Status: 500,
	})

	var raw map[string]any
	json.NewDecoder(w.Body).Decode(&raw)

	if _, ok := raw["detail"]; ok {
		t.Error("expected detail to be omitted when empty")
	}
	if _, ok := raw["instance"]; ok {
		t.Error("expected instance to be omitted when empty")
	}
}
