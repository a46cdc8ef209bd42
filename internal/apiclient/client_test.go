package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/observability"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

type memSession struct {
	token   string
	cleared int32
}

func (s *memSession) Token(context.Context) string { return s.token }

func (s *memSession) Clear(context.Context) error {
	atomic.AddInt32(&s.cleared, 1)
	s.token = ""
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, session *memSession, onUnauthorized UnauthorizedHandler) (*Client, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := observability.NewMetrics()
	c, err := New(Options{BaseURL: srv.URL, Session: session, OnUnauthorized: onUnauthorized, Metrics: metrics})
	require.NoError(t, err)
	return c, metrics
}

func TestBearerTokenAndRequestID(t *testing.T) {
	var gotAuth, gotID, gotQuery string
	c, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(RequestIDHeader)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items":[],"total":0}`))
	}, &memSession{token: "tok"}, nil)

	var out map[string]any
	err := c.Get(context.Background(), "/api/tickets", url.Values{"Page": {"1"}}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, "Page=1", gotQuery)
	assert.Equal(t, int64(1), metrics.APICallCount("/api/tickets", "GET"))
}

func TestRequestIDFromContext(t *testing.T) {
	var gotID string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		_, _ = w.Write([]byte(`{}`))
	}, &memSession{}, nil)

	ctx := WithRequestID(context.Background(), "req-7")
	require.NoError(t, c.Get(ctx, "/api/tickets/summary", nil, nil))
	assert.Equal(t, "req-7", gotID)
	assert.Equal(t, "req-7", RequestIDFrom(ctx))
	assert.Empty(t, RequestIDFrom(context.Background()))
}

func TestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}, &memSession{}, nil)

	require.NoError(t, c.Post(context.Background(), "/api/auth/logout", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedClearsSessionAndNotifies(t *testing.T) {
	session := &memSession{token: "expired"}
	var calls int32
	var tokenSeenByHandler string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, session, func(ctx context.Context) {
		atomic.AddInt32(&calls, 1)
		tokenSeenByHandler = session.token
	})

	err := c.Get(context.Background(), "/api/activity/mine", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&session.cleared))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, tokenSeenByHandler)
}

func TestUnauthorizedWithoutTokenDoesNotNotify(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Credenciales inválidas"}`))
	}, &memSession{}, func(context.Context) { atomic.AddInt32(&calls, 1) })

	err := c.Post(context.Background(), "/api/auth/login", map[string]string{"email": "a"}, nil)
	require.Error(t, err)
	assert.Equal(t, "Credenciales inválidas", apperrors.Message(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClientErrorPropagatesBackendMessage(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"El área tiene tickets pendientes"}`))
	}, &memSession{token: "t"}, nil)

	err := c.Delete(context.Background(), "/api/catalog/areas/a1")
	require.Error(t, err)
	assert.True(t, apperrors.IsClientError(err))
	assert.Contains(t, apperrors.Message(err), "tickets pendientes")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retries")
}

func TestServerErrorIsTransient(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, &memSession{}, nil)

	err := c.Get(context.Background(), "/api/tickets/summary", nil, nil)
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestTransportFailure(t *testing.T) {
	c, err := New(Options{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	err = c.Get(context.Background(), "/api/tickets", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestMultipartBody(t *testing.T) {
	var fields map[string]string
	var fileBody string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{
			"Asunto":    r.FormValue("Asunto"),
			"Prioridad": r.FormValue("Prioridad"),
		}
		f, _, err := r.FormFile("ArchivoAdjunto")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		fileBody = string(b)
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	}, &memSession{token: "t"}, nil)

	form := NewMultipart().
		Field("Asunto", "Impresora").
		Field("Prioridad", "2").
		File(&File{Field: "ArchivoAdjunto", Name: "log.txt", Content: strings.NewReader("contenido")}).
		File(nil)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.SendForm(context.Background(), http.MethodPut, "/api/tickets/t1", form, &out))
	assert.Equal(t, "t1", out.ID)
	assert.Equal(t, "Impresora", fields["Asunto"])
	assert.Equal(t, "2", fields["Prioridad"])
	assert.Equal(t, "contenido", fileBody)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "localhost"})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	var method string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNotFound)
	}, &memSession{token: "tok"}, nil)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, http.MethodHead, method)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	down, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	err = down.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, "UNAVAILABLE", apperrors.ToDomainError(err).Code)
}
