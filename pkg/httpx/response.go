package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body returned on request failures.
type ErrorResponse struct {
	Error       string   `json:"error"`
	Description string   `json:"description,omitempty"`
	Violations  []string `json:"violations,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body with the given status code.
func WriteError(w http.ResponseWriter, code int, errCode, description string) {
	WriteJSON(w, code, ErrorResponse{Error: errCode, Description: description})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
