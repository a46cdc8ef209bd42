package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend token the client looks at. The token
// is never verified client-side; the backend remains the authority.
type Claims struct {
	Role    string `json:"role,omitempty"`
	RoleURI string `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role,omitempty"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// EffectiveRole returns whichever role claim the backend set.
func (c *Claims) EffectiveRole() string {
	if c.Role != "" {
		return c.Role
	}
	return c.RoleURI
}

// ExpiresAtTime returns the expiry, nil when the token has none.
func (c *Claims) ExpiresAtTime() *time.Time {
	if c.ExpiresAt == nil {
		return nil
	}
	t := c.ExpiresAt.Time
	return &t
}

// Expired reports whether the token expired at now.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

// InspectToken decodes the claims of a bearer token without verifying it.
func InspectToken(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
