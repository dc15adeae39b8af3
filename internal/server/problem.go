package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound     = "https://tabula.dev/problems/not-found"
	ProblemTypeBadRequest   = "https://tabula.dev/problems/bad-request"
	ProblemTypeInternal     = "https://tabula.dev/problems/internal-error"
	ProblemTypeUnauthorized = "https://tabula.dev/problems/unauthorized"
	ProblemTypeForbidden    = "https://tabula.dev/problems/forbidden"
	ProblemTypeRateLimited  = "https://tabula.dev/problems/rate-limited"
	ProblemTypeConflict     = "https://tabula.dev/problems/conflict"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(w http.ResponseWriter, typ, title string, status int, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	problem(w, ProblemTypeNotFound, "Not Found", http.StatusNotFound, detail, instance)
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	problem(w, ProblemTypeBadRequest, "Bad Request", http.StatusBadRequest, detail, instance)
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	problem(w, ProblemTypeInternal, "Internal Server Error", http.StatusInternalServerError, detail, instance)
}

// Unauthorized writes a 401 problem response.
func Unauthorized(w http.ResponseWriter, detail, instance string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tabula"`)
	problem(w, ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, detail, instance)
}

// Forbidden writes a 403 problem response.
func Forbidden(w http.ResponseWriter, detail, instance string) {
	problem(w, ProblemTypeForbidden, "Forbidden", http.StatusForbidden, detail, instance)
}

// Conflict writes a 409 problem response.
func Conflict(w http.ResponseWriter, detail, instance string) {
	problem(w, ProblemTypeConflict, "Conflict", http.StatusConflict, detail, instance)
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	problem(w, ProblemTypeRateLimited, "Too Many Requests", http.StatusTooManyRequests, detail, instance)
}
