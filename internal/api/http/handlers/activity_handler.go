package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/auth"
	"github.com/spec-kit/miniticker/internal/service"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// ActivityHandler serves the activity feeds and pending notifications.
type ActivityHandler struct {
	activity      *store.ActivityStore
	detail        *store.TicketDetailStore
	notifications *service.NotificationService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activity *store.ActivityStore, detail *store.TicketDetailStore, notifications *service.NotificationService) *ActivityHandler {
	return &ActivityHandler{activity: activity, detail: detail, notifications: notifications}
}

// Mine GET /activity/mine.
func (h *ActivityHandler) Mine(c *fiber.Ctx) error {
	feed := h.activity.Mine(c.UserContext())
	return view(c, feed, feed.Err)
}

// Global GET /activity/global.
func (h *ActivityHandler) Global(c *fiber.Ctx) error {
	var q dto.ActivityQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if q.Area != nil || q.User != nil {
		areaID, userID := h.activity.GlobalFilters()
		if q.Area != nil {
			areaID = *q.Area
		}
		if q.User != nil {
			userID = *q.User
		}
		h.activity.SetGlobalFilters(areaID, userID)
	}
	feed := h.activity.Global(c.UserContext())
	return view(c, feed, feed.Err)
}

// Open POST /activity/:id/open shows the ticket of a feed entry. When the
// ticket cannot be loaded the placeholder built from the entry is returned
// with a warning.
func (h *ActivityHandler) Open(c *fiber.Ctx) error {
	ctx := c.UserContext()
	global := false
	if principal, ok := auth.PrincipalFromContext(c); ok {
		global = auth.CanAccess(principal.User, auth.SectionActividad)
	}
	item, ok := h.activity.Find(ctx, c.Params("id"), global)
	if !ok {
		return apperrors.NewNotFound("activity", map[string]any{"id": c.Params("id")})
	}
	state, err := h.detail.OpenFromActivity(ctx, item)
	if errors.Is(err, store.ErrNoTicket) {
		return apperrors.NewValidationError("activity entry has no ticket", nil)
	}
	if err != nil && state.Detail == nil {
		return err
	}
	return view(c, state, err)
}

// Notifications GET /notifications.
func (h *ActivityHandler) Notifications(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.notifications.Recent()})
}
