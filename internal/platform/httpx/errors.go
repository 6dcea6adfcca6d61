package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Anything unclassified
// becomes a generic 500 so internal details never reach the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyBody):
		Problem(w, http.StatusBadRequest, "Validation Error", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Error", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidCredentials):
		Unauthorized(w, shared.ErrInvalidCredentials.Error())
	case errors.Is(err, shared.ErrUnauthenticated):
		Unauthorized(w, shared.ErrUnauthenticated.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	default:
		Internal(w)
	}
}

// Unauthorized writes a 401 envelope with a bearer challenge.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// Internal writes the generic 500 envelope.
func Internal(w http.ResponseWriter) {
	Problem(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
}
