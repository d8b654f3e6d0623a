package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError respuesta de error del servidor ({success:false, code, message, errors}).
type APIError struct {
	Status  int                 `json:"-"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = http.StatusText(status)
	}
	e.Status = status
	return e
}

// AsAPIError extrae el *APIError de una cadena de errores.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func hasStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}

// IsNotFound 404.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsValidation 422; los errores por campo quedan en APIError.Errors.
func IsValidation(err error) bool { return hasStatus(err, http.StatusUnprocessableEntity) }

// IsConflict 409 (borrado restringido por registros asociados).
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsUnauthorized 401.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }
