package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/export"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// DashboardHandler serves the report screen and its workbook.
type DashboardHandler struct {
	dashboard *store.DashboardStore
	clock     clock.Clock
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *store.DashboardStore, clk clock.Clock) *DashboardHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &DashboardHandler{dashboard: dashboard, clock: clk}
}

func (h *DashboardHandler) selectFrom(c *fiber.Ctx) (dto.DashboardQuery, error) {
	var q dto.DashboardQuery
	if err := c.QueryParser(&q); err != nil {
		return q, apperrors.NewValidationError("invalid query", nil)
	}
	if q.Period != nil {
		h.dashboard.ChangePeriod(*q.Period)
	}
	if q.Area != nil {
		h.dashboard.SelectArea(*q.Area)
	}
	return q, nil
}

// Get GET /dashboard; refresh=true bypasses the cache.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	q, err := h.selectFrom(c)
	if err != nil {
		return err
	}
	var v store.DashboardView
	if q.Refresh {
		v = h.dashboard.Refresh(c.UserContext())
	} else {
		v = h.dashboard.Load(c.UserContext())
	}
	return view(c, v, v.Err)
}

// Areas GET /dashboard/areas.
func (h *DashboardHandler) Areas(c *fiber.Ctx) error {
	opts, err := h.dashboard.Areas(c.UserContext())
	return view(c, opts, err)
}

// Export GET /dashboard/export.
func (h *DashboardHandler) Export(c *fiber.Ctx) error {
	if _, err := h.selectFrom(c); err != nil {
		return err
	}
	v := h.dashboard.Load(c.UserContext())
	file, err := export.DashboardWorkbook(v.Stats, v.Period, h.clock.Now())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return download(c, file.Name, file.ContentType, file.Data)
}
