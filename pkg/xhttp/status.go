package xhttp

import "net/http"

const (
	StatusOK                    = http.StatusOK
	StatusCreated               = http.StatusCreated
	StatusNoContent             = http.StatusNoContent
	StatusBadRequest            = http.StatusBadRequest
	StatusNotFound              = http.StatusNotFound
	StatusRequestTimeout        = http.StatusRequestTimeout
	StatusRequestEntityTooLarge = http.StatusRequestEntityTooLarge
	StatusUnsupportedMediaType  = http.StatusUnsupportedMediaType
	StatusUnprocessableEntity   = http.StatusUnprocessableEntity
	StatusInternalServerError   = http.StatusInternalServerError
)

func StatusText(code int) string {
	return http.StatusText(code)
}
