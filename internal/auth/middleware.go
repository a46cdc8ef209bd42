package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/domain"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal is the signed-in user behind a console request.
type Principal struct {
	Token string
	User  *domain.User
}

// AuthMiddleware requires a persisted session for console routes.
type AuthMiddleware struct {
	sessions *SessionStore
	clock    clock.Clock
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions *SessionStore, clk clock.Clock) *AuthMiddleware {
	if clk == nil {
		clk = clock.Real()
	}
	return &AuthMiddleware{sessions: sessions, clock: clk}
}

// Handle rejects requests when no session is stored.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	session := m.sessions.Session(c.UserContext())
	if !session.Authenticated() || session.User == nil {
		return apperrors.NewUnauthorized("login required")
	}
	if session.ExpiresAt != nil && !m.clock.Now().Before(*session.ExpiresAt) {
		return apperrors.NewUnauthorized("session expired")
	}
	c.Locals(principalKey, &Principal{Token: session.Token, User: session.User})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireSection ensures the principal's role may open section s.
func RequireSection(s Section) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("login required")
		}
		if !CanAccess(principal.User, s) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
