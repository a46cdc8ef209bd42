package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Estado is the ticket lifecycle state, encoded by the backend as its index.
type Estado int

const (
	EstadoNueva Estado = iota
	EstadoEnProceso
	EstadoResuelta
	EstadoCerrada
	EstadoRechazada
)

var estadoNames = [...]string{"Nueva", "EnProceso", "Resuelta", "Cerrada", "Rechazada"}

var estadoLabels = [...]string{"Nueva", "En Proceso", "Resuelta", "Cerrada", "Rechazada"}

// Estados lists every state in index order.
var Estados = []Estado{EstadoNueva, EstadoEnProceso, EstadoResuelta, EstadoCerrada, EstadoRechazada}

// EstadoFromIndex maps a backend index to a state; out of range yields EstadoNueva.
func EstadoFromIndex(i int) Estado {
	if i < 0 || i >= len(estadoNames) {
		return EstadoNueva
	}
	return Estado(i)
}

// ParseEstado accepts an index, an enum name or a display label.
func ParseEstado(raw string) (Estado, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 || n >= len(estadoNames) {
			return EstadoNueva, false
		}
		return Estado(n), true
	}
	for i := range estadoNames {
		if strings.EqualFold(raw, estadoNames[i]) || strings.EqualFold(raw, estadoLabels[i]) {
			return Estado(i), true
		}
	}
	return EstadoNueva, false
}

// Valid reports whether e is one of the five states.
func (e Estado) Valid() bool {
	return e >= 0 && int(e) < len(estadoNames)
}

func (e Estado) String() string {
	if !e.Valid() {
		return estadoNames[EstadoNueva]
	}
	return estadoNames[e]
}

// Label is the human readable form, e.g. "En Proceso".
func (e Estado) Label() string {
	if !e.Valid() {
		return estadoLabels[EstadoNueva]
	}
	return estadoLabels[e]
}

func (e Estado) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(EstadoFromIndex(int(e))))), nil
}

// UnmarshalJSON accepts the numeric index or the enum name. Unknown values
// decode as EstadoNueva.
func (e *Estado) UnmarshalJSON(data []byte) error {
	raw, err := flexibleScalar(data)
	if err != nil {
		return err
	}
	*e, _ = ParseEstado(raw)
	return nil
}

// Prioridad is the ticket urgency.
type Prioridad int

const (
	PrioridadBaja Prioridad = iota
	PrioridadMedia
	PrioridadAlta
	PrioridadUrgente
)

var prioridadNames = [...]string{"Baja", "Media", "Alta", "Urgente"}

// indexedPrioridades is the backend index table; Urgente only arrives by name.
const indexedPrioridades = 3

// Prioridades lists the selectable priorities in index order.
var Prioridades = []Prioridad{PrioridadBaja, PrioridadMedia, PrioridadAlta}

// PrioridadFromIndex maps a backend index to a priority; out of range yields PrioridadMedia.
func PrioridadFromIndex(i int) Prioridad {
	if i < 0 || i >= indexedPrioridades {
		return PrioridadMedia
	}
	return Prioridad(i)
}

// ParsePrioridad accepts an index or a name.
func ParsePrioridad(raw string) (Prioridad, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 || n >= indexedPrioridades {
			return PrioridadMedia, false
		}
		return Prioridad(n), true
	}
	for i, name := range prioridadNames {
		if strings.EqualFold(raw, name) {
			return Prioridad(i), true
		}
	}
	return PrioridadMedia, false
}

func (p Prioridad) String() string {
	if p < 0 || int(p) >= len(prioridadNames) {
		return prioridadNames[PrioridadMedia]
	}
	return prioridadNames[p]
}

func (p Prioridad) MarshalJSON() ([]byte, error) {
	if p == PrioridadUrgente {
		return json.Marshal(p.String())
	}
	return []byte(strconv.Itoa(int(PrioridadFromIndex(int(p))))), nil
}

// UnmarshalJSON accepts the numeric index or the name. Unknown values decode
// as PrioridadMedia.
func (p *Prioridad) UnmarshalJSON(data []byte) error {
	raw, err := flexibleScalar(data)
	if err != nil {
		return err
	}
	*p, _ = ParsePrioridad(raw)
	return nil
}

func flexibleScalar(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// UserRef is the compact user shape embedded in tickets.
type UserRef struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	Email         string `json:"email,omitempty"`
	Rol           string `json:"rol,omitempty"`
	FotoPerfilURL string `json:"fotoPerfilUrl,omitempty"`
}

// AreaRef is the compact area or request type shape embedded in tickets.
type AreaRef struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	Prefijo       string `json:"prefijo,omitempty"`
	ResponsableID string `json:"responsableId,omitempty"`
}

// Comentario is a user comment on a ticket thread.
type Comentario struct {
	ID      string   `json:"id"`
	Texto   string   `json:"texto"`
	Fecha   string   `json:"fecha"`
	Usuario *UserRef `json:"usuario,omitempty"`
}

// Ticket is a solicitud as returned by the backend. Dates are kept raw; they
// arrive in more than one format.
type Ticket struct {
	ID                 string          `json:"id"`
	Numero             string          `json:"numero"`
	Asunto             string          `json:"asunto"`
	Descripcion        string          `json:"descripcion"`
	Estado             Estado          `json:"estado"`
	Prioridad          Prioridad       `json:"prioridad"`
	FechaCreacion      string          `json:"fechaCreacion"`
	FechaActualizacion string          `json:"fechaActualizacion,omitempty"`
	AreaID             string          `json:"areaId,omitempty"`
	Area               *AreaRef        `json:"area,omitempty"`
	TipoSolicitudID    string          `json:"tipoSolicitudId,omitempty"`
	TipoSolicitud      *AreaRef        `json:"tipoSolicitud,omitempty"`
	SolicitanteID      string          `json:"solicitanteId,omitempty"`
	Solicitante        *UserRef        `json:"solicitante,omitempty"`
	Gestor             *UserRef        `json:"gestor,omitempty"`
	GestorAsignadoID   *string         `json:"gestorAsignadoId,omitempty"`
	ArchivoAdjuntoURL  *string         `json:"archivoAdjuntoUrl,omitempty"`
	Historial          []HistorialItem `json:"historial,omitempty"`
	Comentarios        []Comentario    `json:"comentarios,omitempty"`
}

// AreaNombre returns the owning area name or "General".
func (t *Ticket) AreaNombre() string {
	if t.Area != nil && t.Area.Nombre != "" {
		return t.Area.Nombre
	}
	return "General"
}

// SolicitanteNombre returns the requester name or def.
func (t *Ticket) SolicitanteNombre(def string) string {
	if t.Solicitante != nil && t.Solicitante.Nombre != "" {
		return t.Solicitante.Nombre
	}
	return def
}

// GestorNombre returns the assigned manager name, empty when unassigned.
func (t *Ticket) GestorNombre() string {
	if t.Gestor != nil {
		return t.Gestor.Nombre
	}
	return ""
}

// PagedResult is the backend paging envelope.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// TicketSummary holds counts per status index, keyed "0".."4". Non numeric
// keys sent by the backend are ignored.
type TicketSummary map[string]int

// UnmarshalJSON keeps only numeric keys with numeric values.
func (s *TicketSummary) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}
	out := make(TicketSummary, len(raw))
	for key, val := range raw {
		if _, err := strconv.Atoi(key); err != nil {
			continue
		}
		if n, ok := val.(float64); ok {
			out[key] = int(n)
		}
	}
	*s = out
	return nil
}

// Count returns the count for one state.
func (s TicketSummary) Count(e Estado) int {
	return s[strconv.Itoa(int(e))]
}

// Total sums every numeric key.
func (s TicketSummary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}
