package server

import (
	"encoding/json"
	"net/http"

	"github.com/ahmethakanbesel/countervalues/internal/apperror"
)

// APIResponse is the envelope of every JSON response. Errors carry an empty
// Data and the reason in Message.
type APIResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[T]{
		Message: "ok",
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[string]{
		Message: message,
		Data:    "",
	})
}

func writeAppError(w http.ResponseWriter, ae *apperror.AppError) {
	writeError(w, ae.HTTPStatus(), ae.Message())
}
