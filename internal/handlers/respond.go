package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ahsanfayaz52/notespark/internal/editor"
	"github.com/ahsanfayaz52/notespark/internal/identity"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, errorResponse{Error: msg}, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	var ae *identity.AuthError
	switch {
	case errors.As(err, &ae):
		switch ae.Kind {
		case identity.AuthInvalidCredentials:
			return http.StatusUnauthorized
		case identity.AuthEmailInUse:
			return http.StatusConflict
		case identity.AuthInvalidInput:
			return http.StatusBadRequest
		default:
			return http.StatusServiceUnavailable
		}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, editor.ErrSubmitInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
