package domain

// TipoEvento discriminates history entries.
type TipoEvento int

const (
	EventoCreado TipoEvento = iota
	EventoCambioEstado
	EventoComentario
	EventoAsignacion
)

// HistorialItem is one lifecycle event of a ticket. Fecha is kept as sent
// by the backend since it doubles as part of the dedup key.
type HistorialItem struct {
	Fecha          string     `json:"fecha"`
	TipoEvento     TipoEvento `json:"tipoEvento"`
	Titulo         string     `json:"titulo"`
	Subtitulo      string     `json:"subtitulo"`
	Descripcion    string     `json:"descripcion"`
	EstadoAnterior string     `json:"estadoAnterior,omitempty"`
	EstadoNuevo    string     `json:"estadoNuevo,omitempty"`
}
