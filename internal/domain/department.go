package domain

// AreaStats are best-effort ticket counts attached to an area.
type AreaStats struct {
	Total         int    `json:"total"`
	Activas       int    `json:"activas"`
	Completadas   int    `json:"completadas"`
	PendientesMsg string `json:"pendientesMsg,omitempty"`
}

// Area is a department owning request types.
type Area struct {
	ID            string     `json:"id"`
	Nombre        string     `json:"nombre"`
	Prefijo       string     `json:"prefijo"`
	Activo        bool       `json:"activo"`
	ResponsableID *string    `json:"responsableId,omitempty"`
	Stats         *AreaStats `json:"stats,omitempty"`
}

// StatsOrZero returns the stats, defaulting to zero counts.
func (a Area) StatsOrZero() AreaStats {
	if a.Stats == nil {
		return AreaStats{}
	}
	return *a.Stats
}

// TipoSolicitud is a request category scoped to one area.
type TipoSolicitud struct {
	ID     string `json:"id"`
	AreaID string `json:"areaId"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}

// AreaInput is the create/update payload for an area.
type AreaInput struct {
	Nombre        string  `json:"nombre"`
	Prefijo       string  `json:"prefijo"`
	ResponsableID *string `json:"responsableId,omitempty"`
	Activo        *bool   `json:"activo,omitempty"`
}

// TipoSolicitudInput is the create payload for a request type.
type TipoSolicitudInput struct {
	AreaID string `json:"areaId"`
	Nombre string `json:"nombre"`
}
