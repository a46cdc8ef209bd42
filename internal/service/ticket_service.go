package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/domain"
)

// TicketService wraps the /api/tickets endpoints.
type TicketService struct {
	backend Backend
}

// TicketDependencies encapsulates requirements for ticket service.
type TicketDependencies struct {
	Backend Backend
}

// NewTicketService builds the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{backend: deps.Backend}
}

// TicketFilter is the query of the ticket list and summary. Nil and empty
// fields are not sent.
type TicketFilter struct {
	Page          int
	PageSize      int
	TextoBusqueda string
	AreaID        string
	Estado        *domain.Estado
	Prioridad     *domain.Prioridad
	TieneGestor   *bool
	UsuarioID     string
	FechaDesde    string
	FechaHasta    string
}

// Query encodes the filter with the parameter names the backend expects.
func (f TicketFilter) Query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("Page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("PageSize", strconv.Itoa(f.PageSize))
	}
	if f.TextoBusqueda != "" {
		q.Set("TextoBusqueda", f.TextoBusqueda)
	}
	if f.Prioridad != nil {
		q.Set("Prioridad", strconv.Itoa(int(*f.Prioridad)))
	}
	if f.Estado != nil {
		q.Set("Estado", strconv.Itoa(int(*f.Estado)))
	}
	if f.AreaID != "" {
		q.Set("AreaId", f.AreaID)
	}
	if f.UsuarioID != "" {
		q.Set("UsuarioId", f.UsuarioID)
	}
	if f.TieneGestor != nil {
		q.Set("TieneGestor", boolParam(*f.TieneGestor))
	}
	if f.FechaDesde != "" {
		q.Set("FechaDesde", f.FechaDesde)
	}
	if f.FechaHasta != "" {
		q.Set("FechaHasta", f.FechaHasta)
	}
	return q
}

// TicketInput is the create form of a ticket.
type TicketInput struct {
	AreaID          string
	TipoSolicitudID string
	Prioridad       domain.Prioridad
	Asunto          string
	Descripcion     string
	Archivo         *apiclient.File
}

// TicketUpdate is the edit form of a ticket. Archivo is only sent when a new
// file was chosen.
type TicketUpdate struct {
	Asunto      string
	Descripcion string
	Prioridad   domain.Prioridad
	Archivo     *apiclient.File
}

// List returns one page of tickets.
func (s *TicketService) List(ctx context.Context, filter TicketFilter) (*domain.PagedResult[domain.Ticket], error) {
	var page domain.PagedResult[domain.Ticket]
	if err := s.backend.Get(ctx, "/api/tickets", filter.Query(), &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []domain.Ticket{}
	}
	return &page, nil
}

// Get loads one ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := s.backend.Get(ctx, "/api/tickets/"+escape(id), nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// History returns the events and comments of a ticket, mixed.
func (s *TicketService) History(ctx context.Context, id string) ([]domain.HistorialItem, error) {
	var env listEnvelope[domain.HistorialItem]
	if err := s.backend.Get(ctx, "/api/tickets/"+escape(id)+"/historial", nil, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}

// Create opens a ticket.
func (s *TicketService) Create(ctx context.Context, in TicketInput) (*domain.Ticket, error) {
	if in.Archivo != nil {
		in.Archivo.Field = "ArchivoAdjunto"
	}
	form := apiclient.NewMultipart().
		Field("AreaId", in.AreaID).
		Field("TipoSolicitudId", in.TipoSolicitudID).
		Field("Prioridad", strconv.Itoa(int(in.Prioridad))).
		Field("Asunto", in.Asunto).
		Field("Descripcion", in.Descripcion).
		File(in.Archivo)

	var ticket domain.Ticket
	if err := s.backend.SendForm(ctx, http.MethodPost, "/api/tickets", form, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Update edits subject, description, priority and optionally the attachment.
func (s *TicketService) Update(ctx context.Context, id string, in TicketUpdate) error {
	if in.Archivo != nil {
		in.Archivo.Field = "ArchivoAdjunto"
	}
	form := apiclient.NewMultipart().
		Field("Asunto", in.Asunto).
		Field("Descripcion", in.Descripcion).
		Field("Prioridad", strconv.Itoa(int(in.Prioridad))).
		File(in.Archivo)
	return s.backend.SendForm(ctx, http.MethodPut, "/api/tickets/"+escape(id), form, nil)
}

// Assign hands a ticket to a manager.
func (s *TicketService) Assign(ctx context.Context, id, gestorID string) error {
	body := map[string]string{"gestorId": gestorID}
	return s.backend.Patch(ctx, "/api/tickets/"+escape(id)+"/assign", body, nil)
}

// ChangeStatus moves a ticket to estado; the backend validates the transition.
func (s *TicketService) ChangeStatus(ctx context.Context, id string, estado domain.Estado, motivo string) error {
	body := struct {
		Estado int    `json:"estado"`
		Motivo string `json:"motivo"`
	}{Estado: int(estado), Motivo: motivo}
	return s.backend.Patch(ctx, "/api/tickets/"+escape(id)+"/status", body, nil)
}

// AddComment posts a comment.
func (s *TicketService) AddComment(ctx context.Context, id, texto string) error {
	body := map[string]string{"texto": texto}
	return s.backend.Post(ctx, "/api/tickets/"+escape(id)+"/comentarios", body, nil)
}

// Summary returns the count per status for filter. Paging and status are
// ignored by the backend.
func (s *TicketService) Summary(ctx context.Context, filter TicketFilter) (domain.TicketSummary, error) {
	filter.Page, filter.PageSize, filter.Estado = 0, 0, nil
	var summary domain.TicketSummary
	if err := s.backend.Get(ctx, "/api/tickets/summary", filter.Query(), &summary); err != nil {
		return nil, err
	}
	if summary == nil {
		summary = domain.TicketSummary{}
	}
	return summary, nil
}
