package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tourbook/backend/internal/domain/identity"
	"tourbook/backend/internal/usecase/auth"
)

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError is the single point mapping flow errors to HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		if s.production && !isOperational(err) {
			message = "something went wrong"
		}
	}
	label := "fail"
	if status >= http.StatusInternalServerError {
		label = "error"
	}
	writeJSON(w, status, errorResponse{Status: label, Message: message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, auth.ErrValidation),
		errors.Is(err, auth.ErrResetTokenInvalid),
		errors.Is(err, identity.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrStaleSession),
		errors.Is(err, auth.ErrIdentityGone),
		errors.Is(err, errAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrEmailExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// isOperational reports whether the error carries a message that is safe to
// show callers even in production.
func isOperational(err error) bool {
	return errors.Is(err, auth.ErrEmailDispatch)
}
