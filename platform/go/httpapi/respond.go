// Package httpapi carries the small response-writing conventions shared by
// every handler: JSON bodies, RFC 7807 style problem documents, and the
// stable error categories surfaced to callers.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Problem types surfaced to API consumers. Messages stay implementation-free;
// detail goes to the logs.
const (
	ProblemTypeValidation  = "https://admin.solusisistem.io/problems/validation-error"
	ProblemTypeNotFound    = "https://admin.solusisistem.io/problems/not-found"
	ProblemTypeConflict    = "https://admin.solusisistem.io/problems/conflict"
	ProblemTypeUnavailable = "https://admin.solusisistem.io/problems/service-unavailable"
	ProblemTypeInternal    = "https://admin.solusisistem.io/problems/internal-error"
)

// Problem is the error envelope returned on every non-2xx response.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSON serializes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes a problem+json document.
func WriteProblem(w http.ResponseWriter, status int, problemType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// Convenience writers for the recurring categories.

func WriteValidation(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, ProblemTypeValidation, "Invalid request", detail)
}

func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, ProblemTypeNotFound, "Not found", detail)
}

func WriteConflict(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusConflict, ProblemTypeConflict, "Conflict", detail)
}

func WriteUnavailable(w http.ResponseWriter) {
	WriteProblem(w, http.StatusServiceUnavailable, ProblemTypeUnavailable, "Service temporarily unavailable", "")
}

func WriteInternal(w http.ResponseWriter) {
	WriteProblem(w, http.StatusInternalServerError, ProblemTypeInternal, "Internal error", "")
}
