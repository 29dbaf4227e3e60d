package http

import (
	"encoding/json"
	"net/http"
)

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON escreve o payload sem envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError escreve corpo de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, message string, details any) {
	WriteJSON(w, status, ErrorBody{Error: message, Details: details})
}
