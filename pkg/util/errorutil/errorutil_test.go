package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponseMessageSources(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		code   string
		msg    string
	}{
		{"message field", 400, `{"message":"El asunto es obligatorio"}`, "VALIDATION_FAILED", "El asunto es obligatorio"},
		{"nested error", 409, `{"error":{"message":"ya existe"}}`, "CONFLICT", "ya existe"},
		{"error string", 403, `{"error":"sin permisos"}`, "FORBIDDEN", "sin permisos"},
		{"problem title", 400, `{"title":"One or more validation errors occurred."}`, "VALIDATION_FAILED", "One or more validation errors occurred."},
		{"plain text", 500, `No se puede eliminar: tickets pendientes`, "UPSTREAM_ERROR", "No se puede eliminar: tickets pendientes"},
		{"empty body", 404, ``, "NOT_FOUND", "Not Found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := FromResponse(tc.status, []byte(tc.body))
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.msg, de.Message)
			assert.Equal(t, tc.status, de.HTTPStatus)
		})
	}
}

func TestFromResponseKeepsValidationDetails(t *testing.T) {
	de := FromResponse(400, []byte(`{"title":"bad","errors":{"Email":["requerido"]}}`))
	require.NotNil(t, de.Details)
	assert.Contains(t, de.Details, "Email")
}

func TestClassifiers(t *testing.T) {
	unauthorized := fmt.Errorf("login: %w", FromResponse(http.StatusUnauthorized, nil))
	assert.True(t, IsUnauthorized(unauthorized))
	assert.True(t, IsClientError(unauthorized))
	assert.False(t, IsTransient(unauthorized))

	upstream := FromResponse(http.StatusServiceUnavailable, nil)
	assert.True(t, IsTransient(upstream))
	assert.False(t, IsClientError(upstream))

	transport := NewTransportError(errors.New("connection refused"))
	assert.True(t, IsTransient(transport))

	timeout := ToDomainError(context.DeadlineExceeded)
	assert.Equal(t, "TIMEOUT", timeout.Code)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "ya existe", Message(NewConflict("ya existe", nil)))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestNewActionBlocked(t *testing.T) {
	cause := FromResponse(http.StatusBadRequest, []byte(`{"message":"No se puede eliminar: tiene tickets pendientes"}`))
	err := NewActionBlocked("Acción Bloqueada", "El área tiene tickets activos que deben cerrarse primero.", cause)

	assert.True(t, IsClientError(err))
	assert.Equal(t, "El área tiene tickets activos que deben cerrarse primero.", Message(err))
	assert.ErrorIs(t, err, cause)
}
