package app

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/config"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/scheduler"
	"github.com/spec-kit/miniticker/internal/service"
	"github.com/spec-kit/miniticker/internal/storage"
	"github.com/spec-kit/miniticker/internal/testutil"
)

type collectNotifier struct {
	mu    sync.Mutex
	notes []service.Notification
}

func (c *collectNotifier) Notify(_ context.Context, n service.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
	return nil
}

func (c *collectNotifier) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.notes))
	for _, n := range c.notes {
		out = append(out, n.Kind)
	}
	return out
}

func newContainer(t *testing.T, backend *testutil.Backend, notifier service.Notifier) *Container {
	t.Helper()
	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: backend.URL(), TimeoutSeconds: 5},
		Tickets: config.TicketsConfig{PageSize: 12},
		Locale:  config.LocaleConfig{Timezone: "UTC"},
	}
	c, err := New(cfg, nil, Options{
		KV:        storage.NewMemory(),
		Scheduler: scheduler.NewManual(),
		Notifiers: []service.Notifier{notifier},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Dispose() })
	return c
}

func TestContainerLoginAndList(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/api/auth/login", http.StatusOK, domain.LoginResponse{
		Token: "tok",
		User:  domain.User{ID: "u1", Nombre: "Ana", Rol: domain.RoleAdmin},
	})
	backend.JSON(http.MethodGet, "/api/tickets", http.StatusOK, domain.PagedResult[domain.Ticket]{
		Items: []domain.Ticket{{ID: "t1", Numero: "TI-1", FechaCreacion: "2026-01-03T14:30:00Z"}},
		Total: 1,
	})
	c := newContainer(t, backend, &collectNotifier{})
	ctx := context.Background()

	_, err := c.Stores.Auth.Login(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", c.Session.Token(ctx))

	view, err := c.Stores.Solicitudes.Load(ctx)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	req, ok := backend.Last(http.MethodGet, "/api/tickets")
	require.True(t, ok)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.EqualValues(t, 1, c.Metrics.APICallCount("/api/tickets", http.MethodGet))
}

func TestContainerSessionExpired(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/api/auth/login", http.StatusOK, domain.LoginResponse{
		Token: "tok",
		User:  domain.User{ID: "u1", Nombre: "Ana", Rol: domain.RoleAdmin},
	})
	backend.JSON(http.MethodGet, "/api/catalog/areas", http.StatusOK, []domain.Area{{ID: "A1", Nombre: "TI"}})
	backend.JSON(http.MethodGet, "/api/tickets", http.StatusUnauthorized, map[string]string{"message": "expired"})

	notifier := &collectNotifier{}
	c := newContainer(t, backend, notifier)
	ctx := context.Background()

	_, err := c.Stores.Auth.Login(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	_, err = c.Stores.Solicitudes.AreaOptions(ctx)
	require.NoError(t, err)
	require.Positive(t, c.Cache.Len())

	_, err = c.Stores.Solicitudes.Load(ctx)
	require.Error(t, err)

	assert.Empty(t, c.Session.Token(ctx))
	assert.Zero(t, c.Cache.Len())
	assert.Equal(t, []string{string(events.TopicSessionExpired)}, notifier.kinds())
}

func TestContainerRejectsBadBaseURL(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{BaseURL: "::nope"}}
	_, err := New(cfg, nil, Options{KV: storage.NewMemory(), Scheduler: scheduler.NewManual()})
	require.Error(t, err)
}
