package dto

// AreaRequest payload for creating or editing an area.
type AreaRequest struct {
	Nombre        string `json:"nombre"`
	Prefijo       string `json:"prefijo"`
	ResponsableID string `json:"responsableId"`
	Activo        *bool  `json:"activo"`
}

// TipoRequest payload for creating a request type.
type TipoRequest struct {
	AreaID string `json:"areaId"`
	Nombre string `json:"nombre"`
}

// DashboardQuery selects the report period and area.
type DashboardQuery struct {
	Period  *string `query:"period"`
	Area    *string `query:"area"`
	Refresh bool    `query:"refresh"`
}

// ActivityQuery selects the global feed filters.
type ActivityQuery struct {
	Area *string `query:"area"`
	User *string `query:"user"`
}
