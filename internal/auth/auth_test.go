package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/storage"
)

func signToken(t *testing.T, role string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claims, err := InspectToken(signToken(t, "Gestor", exp))
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "Gestor", claims.EffectiveRole())
	require.NotNil(t, claims.ExpiresAtTime())
	assert.True(t, claims.ExpiresAtTime().Equal(exp))
	assert.False(t, claims.Expired(exp.Add(-time.Minute)))
	assert.True(t, claims.Expired(exp))

	_, err = InspectToken("not-a-jwt")
	assert.Error(t, err)
	_, err = InspectToken("")
	assert.Error(t, err)
}

func TestSessionStoreSaveAndClear(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, storage.KeyViewMode, "grid"))
	sessions := NewSessionStore(kv, nil)

	user := domain.User{ID: "u-1", Nombre: "Ana", Rol: domain.RoleGestor, AreaID: "A1"}
	require.NoError(t, sessions.Save(ctx, "tok", user))

	assert.Equal(t, "tok", sessions.Token(ctx))
	require.NotNil(t, sessions.User(ctx))
	assert.Equal(t, "A1", sessions.User(ctx).AreaID)

	reloaded := NewSessionStore(kv, nil)
	assert.Equal(t, "Ana", reloaded.User(ctx).Nombre)

	require.NoError(t, sessions.Clear(ctx))
	assert.Empty(t, sessions.Token(ctx))
	assert.Nil(t, sessions.User(ctx))

	mode, ok, _ := kv.Get(ctx, storage.KeyViewMode)
	assert.True(t, ok)
	assert.Equal(t, "grid", mode)
}

func TestSessionStoreIgnoresCorruptUser(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, storage.KeyUser, "{not json"))
	assert.Nil(t, NewSessionStore(kv, nil).User(ctx))
}

func TestCanAccess(t *testing.T) {
	cases := []struct {
		role    domain.Role
		section Section
		allowed bool
	}{
		{domain.RoleSolicitante, SectionCrearSolicitud, true},
		{domain.RoleGestor, SectionCrearSolicitud, false},
		{domain.RoleGestor, SectionSolicitudes, true},
		{domain.RoleAdmin, SectionDepartamentos, true},
		{domain.RoleSolicitante, SectionActividad, false},
		{domain.RoleAdmin, SectionUsuarios, false},
		{domain.RoleSuperAdmin, SectionUsuarios, true},
	}
	for _, tc := range cases {
		user := &domain.User{Rol: tc.role}
		assert.Equal(t, tc.allowed, CanAccess(user, tc.section), "%s -> %s", tc.role, tc.section)
	}
	assert.False(t, CanAccess(nil, SectionHome))
}

func TestAuthMiddleware(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)
	sessions := NewSessionStore(storage.NewMemory(), nil)
	mw := NewAuthMiddleware(sessions, clock.Fake(now))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})
	app.Get("/users", mw.Handle, RequireSection(SectionUsuarios), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/users", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, sessions.Save(ctx, signToken(t, "SuperAdmin", now.Add(time.Hour)), domain.User{ID: "u", Rol: domain.RoleSuperAdmin}))
	resp, err = app.Test(httptest.NewRequest("GET", "/users", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, sessions.Save(ctx, signToken(t, "SuperAdmin", now.Add(-time.Hour)), domain.User{ID: "u", Rol: domain.RoleSuperAdmin}))
	resp, err = app.Test(httptest.NewRequest("GET", "/users", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
