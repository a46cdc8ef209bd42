package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/auth"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// AuthHandler exposes login and logout of the local session.
type AuthHandler struct {
	auth *store.AuthStore
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authStore *store.AuthStore) *AuthHandler {
	return &AuthHandler{auth: authStore}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	resp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":             resp.User,
		"requiresPassword": resp.DebeCambiarPassword || resp.User.DebeCambiarPassword,
	}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	return c.JSON(fiber.Map{"data": principal.User})
}

// RequestPasswordReset handles POST /auth/password/reset.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email, req.Codigo); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// CompleteSetup handles POST /auth/setup, a multipart form with newPassword
// and an optional fotoPerfil file.
func (h *AuthHandler) CompleteSetup(c *fiber.Ctx) error {
	password := c.FormValue("newPassword")
	if password == "" {
		return apperrors.NewValidationError("newPassword required", nil)
	}

	var foto *apiclient.File
	if fh, err := c.FormFile("fotoPerfil"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable photo", nil)
		}
		defer f.Close()
		foto = &apiclient.File{Name: fh.Filename, Content: f}
	}

	res, err := h.auth.CompleteSetup(c.UserContext(), password, foto)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": res})
}
