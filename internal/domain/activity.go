package domain

// ActivityItem is an entry of an activity feed. Tipo is open ended; the
// backend adds new kinds without notice.
type ActivityItem struct {
	ID            string  `json:"id"`
	TicketID      *string `json:"ticketId"`
	Titulo        string  `json:"titulo"`
	Mensaje       string  `json:"mensaje"`
	Fecha         string  `json:"fecha"`
	FechaCreacion string  `json:"fechaCreacion"`
	Tipo          string  `json:"tipo"`
	Usuario       string  `json:"usuario,omitempty"`
}

// Known activity kinds.
const (
	ActivityCreado                    = "Creado"
	ActivityCambioEstado              = "CambioEstado"
	ActivityComentario                = "ComentarioADD"
	ActivityAsignado                  = "Asignado"
	ActivityPrioridadCritica          = "PrioridadCritica"
	ActivityLogin                     = "Login"
	ActivityLogout                    = "Logout"
	ActivityUsuarioCreado             = "UsuarioCreado"
	ActivityUsuarioActualizado        = "UsuarioActualizado"
	ActivityUsuarioEstadoCambio       = "UsuarioEstadoCambio"
	ActivityAreaCreada                = "AreaCreada"
	ActivityAreaActualizada           = "AreaActualizada"
	ActivityAreaEliminada             = "AreaEliminada"
	ActivityAreaEstadoCambio          = "AreaEstadoCambio"
	ActivityAreaResponsableQuitar     = "AreaResponsableQuitar"
	ActivityTipoSolicitudCreado       = "TipoSolicitudCreado"
	ActivityTipoSolicitudEliminado    = "TipoSolicitudEliminado"
	ActivityTipoSolicitudEstadoCambio = "TipoSolicitudEstadoCambio"
)

// HasTicket reports whether the entry links to a ticket.
func (a ActivityItem) HasTicket() bool {
	return a.TicketID != nil && *a.TicketID != ""
}
