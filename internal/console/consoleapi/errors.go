package consoleapi

import (
	"errors"
	"fmt"
	"net/http"

	jujuerrors "github.com/juju/errors"

	"rent-console/internal/platform/httpclient"
)

// ErrNetwork: no hubo respuesta del backend (red caída, conexión rechazada).
const ErrNetwork = jujuerrors.ConstError("network error")

// APIError clasifica una falla de la API. Kind es uno de los ConstError de
// juju/errors, así que errors.Is(err, errors.NotFound) y errors.As(err, &he)
// con *httpclient.HTTPError funcionan sobre el mismo valor.
type APIError struct {
	Kind    jujuerrors.ConstError
	Status  int
	Message string
	Fields  map[string]string

	Err error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *APIError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		return &APIError{
			Kind:    kindForStatus(he.StatusCode),
			Status:  he.StatusCode,
			Message: he.Message,
			Fields:  he.Fields,
			Err:     he,
		}
	}

	var te *httpclient.TransportError
	if errors.As(err, &te) {
		kind := ErrNetwork
		if te.Timeout {
			kind = jujuerrors.Timeout
		}
		return &APIError{Kind: kind, Message: te.Err.Error(), Err: te}
	}
	return err
}

func kindForStatus(status int) jujuerrors.ConstError {
	switch status {
	case http.StatusUnauthorized:
		return jujuerrors.Unauthorized
	case http.StatusForbidden:
		return jujuerrors.Forbidden
	case http.StatusNotFound:
		return jujuerrors.NotFound
	case http.StatusConflict:
		return jujuerrors.AlreadyExists
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return jujuerrors.NotValid
	case http.StatusTooManyRequests:
		return jujuerrors.QuotaLimitExceeded
	default:
		return jujuerrors.ConstError(fmt.Sprintf("server error (status %d)", status))
	}
}

// FieldErrors devuelve el detalle por campo de un 422, si vino.
func FieldErrors(err error) map[string]string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

func IsNetwork(err error) bool {
	return jujuerrors.Is(err, ErrNetwork) || jujuerrors.Is(err, jujuerrors.Timeout)
}
