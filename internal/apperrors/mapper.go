package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a service error onto the HTTP status the handler layer
// should respond with. Centralized here so handlers stay free of error
// inspection logic.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNoMatch):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSelfLike), errors.Is(err, ErrSelfFollow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether the error message is safe to show to the client.
// Internal failures are replaced with a generic message by the handlers.
func Public(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
