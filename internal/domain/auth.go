package domain

import "time"

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is what the backend answers on login.
type LoginResponse struct {
	Token               string `json:"token"`
	User                User   `json:"user"`
	DebeCambiarPassword bool   `json:"debeCambiarPassword"`
}

// PasswordResetRequest asks the backend to reset a forgotten password.
type PasswordResetRequest struct {
	Email              string `json:"email"`
	Primeros4DigitosID string `json:"primeros4DigitosId"`
}

// SetupResult is returned after completing first-login setup.
type SetupResult struct {
	FotoURL string `json:"fotoUrl"`
}

// Session is the persisted client session.
type Session struct {
	Token     string
	User      *User
	ExpiresAt *time.Time
}

// Authenticated reports whether a token is held.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
