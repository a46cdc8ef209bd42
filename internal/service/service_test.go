package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/testutil"
)

func newBackend(t *testing.T) (*testutil.Backend, *apiclient.Client) {
	t.Helper()
	backend := testutil.NewBackend(t)
	client, err := apiclient.New(apiclient.Options{BaseURL: backend.URL()})
	require.NoError(t, err)
	return backend, client
}

func TestTicketFilterQuery(t *testing.T) {
	estado := domain.EstadoResuelta
	prioridad := domain.PrioridadAlta
	conGestor := false

	q := TicketFilter{
		Page:          2,
		PageSize:      12,
		TextoBusqueda: "impresora",
		AreaID:        "A1",
		Estado:        &estado,
		Prioridad:     &prioridad,
		TieneGestor:   &conGestor,
	}.Query()

	assert.Equal(t, "2", q.Get("Page"))
	assert.Equal(t, "12", q.Get("PageSize"))
	assert.Equal(t, "impresora", q.Get("TextoBusqueda"))
	assert.Equal(t, "A1", q.Get("AreaId"))
	assert.Equal(t, "2", q.Get("Estado"))
	assert.Equal(t, "2", q.Get("Prioridad"))
	assert.Equal(t, "false", q.Get("TieneGestor"))
	assert.False(t, q.Has("UsuarioId"))
}

func TestTicketListAndSummary(t *testing.T) {
	backend, client := newBackend(t)
	backend.JSON(http.MethodGet, "/api/tickets", http.StatusOK, map[string]any{
		"items": []map[string]any{{"id": "t1", "numero": "TI-1", "estado": 1, "prioridad": "Alta"}},
		"total": 1,
	})
	backend.JSON(http.MethodGet, "/api/tickets/summary", http.StatusOK, map[string]any{"0": 3, "1": 2, "total": 99})

	svc := NewTicketService(TicketDependencies{Backend: client})
	ctx := context.Background()
	estado := domain.EstadoNueva

	page, err := svc.List(ctx, TicketFilter{Page: 1, PageSize: 12, Estado: &estado})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.EstadoEnProceso, page.Items[0].Estado)
	assert.Equal(t, domain.PrioridadAlta, page.Items[0].Prioridad)

	summary, err := svc.Summary(ctx, TicketFilter{Page: 3, PageSize: 12, Estado: &estado, AreaID: "A1"})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total())

	req, ok := backend.Last(http.MethodGet, "/api/tickets/summary")
	require.True(t, ok)
	assert.False(t, req.Query.Has("Page"))
	assert.False(t, req.Query.Has("Estado"))
	assert.Equal(t, "A1", req.Query.Get("AreaId"))
}

func TestTicketMutationsPayloads(t *testing.T) {
	backend, client := newBackend(t)
	for _, path := range []string{"/api/tickets/t1/status", "/api/tickets/t1/assign"} {
		backend.JSON(http.MethodPatch, path, http.StatusOK, map[string]any{})
	}
	backend.JSON(http.MethodPost, "/api/tickets/t1/comentarios", http.StatusOK, map[string]any{})
	backend.Handle(http.MethodPut, "/api/tickets/t1", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Nuevo asunto", r.FormValue("Asunto"))
		assert.Equal(t, "0", r.FormValue("Prioridad"))
		f, hdr, err := r.FormFile("ArchivoAdjunto")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "captura.png", hdr.Filename)
		assert.Equal(t, "png", string(data))
		w.WriteHeader(http.StatusNoContent)
	})

	svc := NewTicketService(TicketDependencies{Backend: client})
	ctx := context.Background()

	require.NoError(t, svc.ChangeStatus(ctx, "t1", domain.EstadoResuelta, "Listo"))
	req, _ := backend.Last(http.MethodPatch, "/api/tickets/t1/status")
	assert.JSONEq(t, `{"estado":2,"motivo":"Listo"}`, string(req.Body))

	require.NoError(t, svc.Assign(ctx, "t1", "g1"))
	req, _ = backend.Last(http.MethodPatch, "/api/tickets/t1/assign")
	assert.JSONEq(t, `{"gestorId":"g1"}`, string(req.Body))

	require.NoError(t, svc.AddComment(ctx, "t1", "Hola"))
	req, _ = backend.Last(http.MethodPost, "/api/tickets/t1/comentarios")
	assert.JSONEq(t, `{"texto":"Hola"}`, string(req.Body))

	err := svc.Update(ctx, "t1", TicketUpdate{
		Asunto:    "Nuevo asunto",
		Prioridad: domain.PrioridadBaja,
		Archivo:   &apiclient.File{Name: "captura.png", Content: strings.NewReader("png")},
	})
	require.NoError(t, err)
}

func TestUserListAcceptsBothShapes(t *testing.T) {
	backend, client := newBackend(t)
	svc := NewUserService(UserDependencies{Backend: client})
	ctx := context.Background()

	backend.JSON(http.MethodGet, "/api/users", http.StatusOK, []map[string]any{{"id": "u1", "rol": "Gestor"}})
	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleGestor, users[0].Rol)

	backend.JSON(http.MethodGet, "/api/users", http.StatusOK, map[string]any{"items": []map[string]any{{"id": "u1"}, {"id": "u2"}}})
	users, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	backend.JSON(http.MethodPut, "/api/users/u1/deactivate", http.StatusOK, map[string]any{})
	require.NoError(t, svc.SetActive(ctx, "u1", false))
	assert.Equal(t, 1, backend.Calls(http.MethodPut, "/api/users/u1/deactivate"))
}

func TestCatalogAreasDefaultStats(t *testing.T) {
	backend, client := newBackend(t)
	backend.JSON(http.MethodGet, "/api/catalog/areas", http.StatusOK, []map[string]any{
		{"id": "A1", "nombre": "TI", "activo": true},
		{"id": "A2", "nombre": "Compras", "activo": true, "stats": map[string]int{"total": 4}},
	})
	svc := NewCatalogService(CatalogDependencies{Backend: client})

	areas, err := svc.ListAreas(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	require.NotNil(t, areas[0].Stats)
	assert.Zero(t, areas[0].Stats.Total)
	assert.Equal(t, 4, areas[1].Stats.Total)

	req, _ := backend.Last(http.MethodGet, "/api/catalog/areas")
	assert.Equal(t, "true", req.Query.Get("mostrarInactivos"))
}

func TestCatalogTiposWithoutAreaSkipsBackend(t *testing.T) {
	backend, client := newBackend(t)
	svc := NewCatalogService(CatalogDependencies{Backend: client})

	tipos, err := svc.ListTipos(context.Background(), "", false)
	require.NoError(t, err)
	assert.Empty(t, tipos)
	assert.Zero(t, backend.Calls(http.MethodGet, "/api/catalog/tipos-solicitud"))
}

func TestCatalogToggleTipo(t *testing.T) {
	backend, client := newBackend(t)
	backend.JSON(http.MethodPatch, "/api/catalog/tipos-solicitud/T1/desactivate", http.StatusOK, map[string]any{})
	svc := NewCatalogService(CatalogDependencies{Backend: client})

	require.NoError(t, svc.ToggleTipo(context.Background(), "T1", false))
	assert.Equal(t, 1, backend.Calls(http.MethodPatch, "/api/catalog/tipos-solicitud/T1/desactivate"))
}

func TestActivityFeeds(t *testing.T) {
	backend, client := newBackend(t)
	backend.JSON(http.MethodGet, "/api/activity/mine", http.StatusOK, map[string]any{
		"items": []map[string]any{{"id": "a1", "tipo": "Creado"}},
	})
	backend.JSON(http.MethodGet, "/api/activity/global", http.StatusOK, []map[string]any{})
	backend.JSON(http.MethodGet, "/api/activity/stats", http.StatusOK, map[string]any{"kpis": map[string]int{"total": 7}})

	svc := NewActivityService(ActivityDependencies{Backend: client})
	ctx := context.Background()

	mine, err := svc.Mine(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	global, err := svc.Global(ctx, "A1", "")
	require.NoError(t, err)
	assert.Empty(t, global)
	req, _ := backend.Last(http.MethodGet, "/api/activity/global")
	assert.Equal(t, "A1", req.Query.Get("areaId"))
	assert.False(t, req.Query.Has("userId"))

	stats, err := svc.Stats(ctx, "este-mes", "")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.KPIs.Total)
}

func TestAuthLoginAndReset(t *testing.T) {
	backend, client := newBackend(t)
	backend.JSON(http.MethodPost, "/api/auth/login", http.StatusOK, map[string]any{
		"token": "tok",
		"user":  map[string]any{"id": "u1", "nombre": "Ana", "rol": "Admin"},
	})
	backend.JSON(http.MethodPost, "/api/auth/request-reset", http.StatusOK, map[string]any{})

	svc := NewAuthService(AuthDependencies{Backend: client})
	ctx := context.Background()

	resp, err := svc.Login(ctx, "ana@miniticker.com", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, domain.RoleAdmin, resp.User.Rol)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ana@miniticker.com", "0012"))
	req, _ := backend.Last(http.MethodPost, "/api/auth/request-reset")
	assert.JSONEq(t, `{"email":"ana@miniticker.com","primeros4DigitosId":"0012"}`, string(req.Body))
}
