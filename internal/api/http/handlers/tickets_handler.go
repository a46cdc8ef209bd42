package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/miniticker/internal/api/dto"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/export"
	"github.com/spec-kit/miniticker/internal/service"
	"github.com/spec-kit/miniticker/internal/store"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// TicketsHandler serves the ticket list, detail and actions.
type TicketsHandler struct {
	list     *store.SolicitudesStore
	detail   *store.TicketDetailStore
	overview *store.OverviewStore
	ui       *store.UIStore
	loc      *time.Location
}

// NewTicketsHandler constructs handler. loc is the zone printed dates are
// rendered in.
func NewTicketsHandler(list *store.SolicitudesStore, detail *store.TicketDetailStore, overview *store.OverviewStore, ui *store.UIStore, loc *time.Location) *TicketsHandler {
	return &TicketsHandler{list: list, detail: detail, overview: overview, ui: ui, loc: loc}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	var q dto.TicketListQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	h.applyFilters(q)

	ctx := c.UserContext()
	page, err := h.list.Load(ctx)
	return view(c, dto.TicketListResponse{
		Filters:  h.list.Filters(),
		Page:     page,
		ViewMode: h.ui.ViewMode(ctx),
	}, err)
}

func (h *TicketsHandler) applyFilters(q dto.TicketListQuery) {
	if q.Reset {
		h.list.ResetFilters()
	}
	if q.Search != nil {
		h.list.SetSearchTerm(*q.Search)
	}
	if q.Area != nil {
		h.list.SetTypeFilter(*q.Area)
	}
	if q.Prioridad != nil {
		h.list.SetPriorityFilter(*q.Prioridad)
	}
	if q.Tab != nil {
		h.list.SetActiveTab(store.Tab(*q.Tab))
	}
	if q.Gestor != nil {
		h.list.SetGestorFilter(store.GestorFilter(*q.Gestor))
	}
	if q.Page > 0 {
		h.list.SetPage(q.Page)
	}
}

// Counts GET /tickets/counts.
func (h *TicketsHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.list.Counts(c.UserContext())
	return view(c, counts, err)
}

// AreaOptions GET /tickets/areas.
func (h *TicketsHandler) AreaOptions(c *fiber.Ctx) error {
	opts, err := h.list.AreaOptions(c.UserContext())
	return view(c, opts, err)
}

// Overview GET /tickets/overview.
func (h *TicketsHandler) Overview(c *fiber.Ctx) error {
	ov := h.overview.Load(c.UserContext())
	return view(c, ov, ov.Err)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	state, err := h.detail.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": state})
}

// DownloadPDF GET /tickets/:id/pdf.
func (h *TicketsHandler) DownloadPDF(c *fiber.Ctx) error {
	state, err := h.detail.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if state.Detail == nil {
		return apperrors.NewNotFound("ticket", nil)
	}
	ticket := state.Detail.Ticket
	ticket.Historial = make([]domain.HistorialItem, 0, len(state.Detail.Historial))
	for _, entry := range state.Detail.Historial {
		ticket.Historial = append(ticket.Historial, entry.HistorialItem)
	}
	file, err := export.TicketPDF(ticket, h.loc)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return download(c, file.Name, file.ContentType, file.Data)
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	estado, ok := domain.ParseEstado(req.Estado)
	if !ok {
		return apperrors.NewValidationError("unknown estado", map[string]any{"estado": req.Estado})
	}
	return h.act(c, func() error {
		return h.detail.ChangeStatus(c.UserContext(), estado, req.Motivo)
	})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Texto) == "" {
		return apperrors.NewValidationError("texto required", nil)
	}
	return h.act(c, func() error {
		return h.detail.AddComment(c.UserContext(), req.Texto)
	})
}

// Assign PATCH /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.GestorID == "" {
		return apperrors.NewValidationError("gestorId required", nil)
	}
	return h.act(c, func() error {
		return h.detail.AssignManager(c.UserContext(), req.GestorID)
	})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.TicketUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Asunto) == "" {
		return apperrors.NewValidationError("asunto required", nil)
	}
	return h.act(c, func() error {
		return h.detail.Update(c.UserContext(), service.TicketUpdate{
			Asunto:      req.Asunto,
			Descripcion: req.Descripcion,
			Prioridad:   dto.ParsePrioridad(req.Prioridad),
		})
	})
}

// act opens the ticket named in the path when another one is shown, runs
// the action and answers with the reloaded detail.
func (h *TicketsHandler) act(c *fiber.Ctx, action func() error) error {
	id := c.Params("id")
	current := h.detail.State()
	if current.Detail == nil || current.Detail.Ticket.ID != id {
		if _, err := h.detail.Open(c.UserContext(), id); err != nil {
			return err
		}
	}
	if err := action(); err != nil {
		if errors.Is(err, store.ErrNoTicket) {
			return apperrors.NewNotFound("ticket", nil)
		}
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail.State()})
}
