package store

import (
	"net/http"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

// Headers carrying the acting user on the document API.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

// StatusUpdate is the body of a status-only PUT /documents/{id}.
type StatusUpdate struct {
	Status  document.Status `json:"status"`
	Catatan string          `json:"catatan,omitempty"`
}

// ErrorBody is the JSON body of every non-2xx API response.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// HTTPStatus maps an error to the API status code.
func HTTPStatus(err error) int {
	if errors.Is(err, errors.ErrCodeConflict) {
		return http.StatusConflict
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryPermission:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// CodeForStatus is the fallback error code for a response without a body.
func CodeForStatus(status int) errors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.ErrCodeInvalidInput
	case http.StatusForbidden, http.StatusUnauthorized:
		return errors.ErrCodeForbidden
	case http.StatusNotFound:
		return errors.ErrCodeNotFound
	case http.StatusConflict:
		return errors.ErrCodeConflict
	}
	return errors.ErrCodeNetwork
}
