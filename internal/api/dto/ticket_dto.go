package dto

import (
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/store"
)

// TicketListQuery captures the list filters accepted on GET /tickets.
// Absent fields keep the current store value.
type TicketListQuery struct {
	Search    *string `query:"search"`
	Area      *string `query:"area"`
	Prioridad *string `query:"prioridad"`
	Tab       *string `query:"tab"`
	Gestor    *string `query:"gestor"`
	Page      int     `query:"page"`
	Reset     bool    `query:"reset"`
}

// TicketListResponse is a rendered page plus the applied filters.
type TicketListResponse struct {
	Filters  store.Filters  `json:"filters"`
	Page     store.ListView `json:"page"`
	ViewMode store.ViewMode `json:"viewMode"`
}

// StatusChangeRequest payload for PATCH /tickets/:id/status.
type StatusChangeRequest struct {
	Estado string `json:"estado"`
	Motivo string `json:"motivo"`
}

// CommentRequest payload for POST /tickets/:id/comments.
type CommentRequest struct {
	Texto string `json:"texto"`
}

// AssignRequest payload for PATCH /tickets/:id/assign.
type AssignRequest struct {
	GestorID string `json:"gestorId"`
}

// TicketUpdateRequest payload for PUT /tickets/:id.
type TicketUpdateRequest struct {
	Asunto      string `json:"asunto"`
	Descripcion string `json:"descripcion"`
	Prioridad   string `json:"prioridad"`
}

// ParsePrioridad maps a label to a priority, defaulting to Media.
func ParsePrioridad(raw string) domain.Prioridad {
	p, ok := domain.ParsePrioridad(raw)
	if !ok {
		return domain.PrioridadMedia
	}
	return p
}
