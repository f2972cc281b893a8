package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/storelink/internal/apperror"
)

// statusFor maps a domain error to the status used when a form is
// re-rendered with the error message.
//
//	ErrValidation, ErrUnauthorized → 400 (the form is shown again)
//	ErrConflict                    → 409
//	ErrNotFound                    → 404
//	anything else                  → 500
//
// ErrUnauthorized is a failed login here, not a missing session; the
// session middleware redirects instead.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// isUserError reports whether err carries a message meant for the user.
// Persistence errors do too, but they are rendered as failures.
func isUserError(err error) bool {
	return statusFor(err) < http.StatusInternalServerError
}

// errorFlash turns err into an error flash, hiding unexpected causes behind
// fallback.
func errorFlash(err error, fallback string) Flash {
	return Flash{Kind: FlashError, Message: apperror.MessageOf(err, fallback)}
}
