package errorutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewActionBlocked reports a write the backend refused because of the
// current state of the resource. title is a short heading for the user.
func NewActionBlocked(title, message string, err error) error {
	return &DomainError{
		Code:       "ACTION_BLOCKED",
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"title": title},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewTransportError wraps a failure to reach the backend at all.
func NewTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Code:       "TIMEOUT",
			Message:    "backend did not answer in time",
			HTTPStatus: http.StatusGatewayTimeout,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       "UNAVAILABLE",
		Message:    "backend unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// FromResponse builds a DomainError from a non-2xx backend response. The
// message is taken from the first of message, error.message, error, title
// and the raw body that is present.
func FromResponse(status int, body []byte) *DomainError {
	de := &DomainError{
		Code:       codeForStatus(status),
		HTTPStatus: status,
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil && payload != nil {
		de.Message = messageFrom(payload)
		if errs, ok := payload["errors"].(map[string]any); ok && len(errs) > 0 {
			de.Details = errs
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		de.Message = strings.Trim(text, `"`)
	}

	if de.Message == "" {
		de.Message = http.StatusText(status)
	}
	return de
}

func messageFrom(payload map[string]any) string {
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	switch e := payload["error"].(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if title, ok := payload["title"].(string); ok && title != "" {
		return title
	}
	return ""
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status >= 500:
		return "UPSTREAM_ERROR"
	default:
		return "REQUEST_FAILED"
	}
}

// MapError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewTransportError(err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsUnauthorized reports whether err carries a 401.
func IsUnauthorized(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.HTTPStatus == http.StatusUnauthorized
}

// IsClientError reports a 4xx rejection from the backend.
func IsClientError(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.HTTPStatus >= 400 && de.HTTPStatus < 500
}

// IsTransient reports network failures and 5xx answers.
func IsTransient(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus >= 500
	}
	return err != nil
}

// Message returns the user-facing text of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
