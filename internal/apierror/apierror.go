package apierror

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind classifies a failure by origin rather than by Go error type.
type Kind string

const (
	KindNetwork        Kind = "network"
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindServer         Kind = "server"
	KindClient         Kind = "client"
)

// Error is the normalized shape every API failure is reduced to before
// it reaches a caller.
type Error struct {
	Kind    Kind                `json:"kind"`
	Message string              `json:"message"`
	Status  int                 `json:"status,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether a retry action should be offered. Only
// connectivity failures and 5xx responses qualify; everything else
// needs user correction or re-authentication first.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

// NeedsSignIn reports whether the failure should route the user to
// re-authenticate.
func (e *Error) NeedsSignIn() bool {
	return e.Kind == KindAuthentication
}

// Validation builds a validation-kind error with per-field violations.
func Validation(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// FromTransport wraps a connectivity failure (dial, timeout, broken
// connection) that produced no HTTP response.
func FromTransport(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error()}
}

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields"`
}

// FromResponse normalizes a non-2xx HTTP response into an Error.
func FromResponse(status int, body []byte) *Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Message
	if message == "" {
		message = parsed.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}

	e := &Error{Message: message, Status: status, Fields: parsed.Fields}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthentication
	case status == http.StatusForbidden:
		e.Kind = KindAuthorization
	case status >= 500:
		e.Kind = KindServer
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindClient
	}
	return e
}
