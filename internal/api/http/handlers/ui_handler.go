package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// UIHandler stores presentation preferences.
type UIHandler struct {
	ui *store.UIStore
}

// NewUIHandler constructs handler.
func NewUIHandler(ui *store.UIStore) *UIHandler {
	return &UIHandler{ui: ui}
}

// GetViewMode GET /ui/view-mode.
func (h *UIHandler) GetViewMode(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.ui.ViewMode(c.UserContext())})
}

// SetViewMode PUT /ui/view-mode.
func (h *UIHandler) SetViewMode(c *fiber.Ctx) error {
	var req dto.ViewModeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	mode := store.ViewMode(req.Mode)
	if mode != store.ViewGrid && mode != store.ViewTable {
		return apperrors.NewValidationError("mode must be grid or table", nil)
	}
	if err := h.ui.SetViewMode(c.UserContext(), mode); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mode})
}
