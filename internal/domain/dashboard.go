package domain

// DashboardKPIs are the headline counters of a period.
type DashboardKPIs struct {
	Total          int     `json:"total"`
	Completadas    int     `json:"completadas"`
	Pendientes     int     `json:"pendientes"`
	EnProceso      int     `json:"enProceso"`
	Rechazadas     int     `json:"rechazadas"`
	Vencidas       int     `json:"vencidas"`
	TasaResolucion float64 `json:"tasaResolucion"`
	TiempoPromedio float64 `json:"tiempoPromedio"`
	Satisfaccion   float64 `json:"satisfaccion"`
}

// TrendPoint is one bucket of the time series.
type TrendPoint struct {
	Mes         string `json:"mes"`
	Total       int    `json:"total"`
	Completadas int    `json:"completadas"`
	Vencidas    int    `json:"vencidas"`
	Rechazadas  int    `json:"rechazadas"`
}

// StatusCount is a count per status label.
type StatusCount struct {
	Estado   string `json:"estado"`
	Cantidad int    `json:"cantidad"`
}

// PriorityCount is a count per priority label.
type PriorityCount struct {
	Prioridad string `json:"prioridad"`
	Cantidad  int    `json:"cantidad"`
}

// TopRequester ranks requesters by volume.
type TopRequester struct {
	ID       string `json:"id"`
	Nombre   string `json:"nombre"`
	Cantidad int    `json:"cantidad"`
}

// TopManager ranks managers by assigned volume.
type TopManager struct {
	ID         string `json:"id"`
	Nombre     string `json:"nombre"`
	Area       string `json:"area"`
	Cantidad   int    `json:"cantidad"`
	Resueltas  int    `json:"resueltas"`
	Rechazadas int    `json:"rechazadas"`
	Vencidas   int    `json:"vencidas"`
	EnProceso  int    `json:"enProceso"`
}

// AreaPerformance summarizes one area.
type AreaPerformance struct {
	Area        string `json:"area"`
	Total       int    `json:"total"`
	Completadas int    `json:"completadas"`
	Vencidas    int    `json:"vencidas"`
	Rechazadas  int    `json:"rechazadas"`
}

// DashboardStats is the server aggregated report snapshot.
type DashboardStats struct {
	KPIs            DashboardKPIs     `json:"kpis"`
	Tendencia       []TrendPoint      `json:"tendencia"`
	Estatus         []StatusCount     `json:"estatus"`
	Prioridades     []PriorityCount   `json:"prioridades"`
	TopSolicitantes []TopRequester    `json:"topSolicitantes"`
	TopGestores     []TopManager      `json:"topGestores"`
	DesempenoAreas  []AreaPerformance `json:"desempenoAreas"`
}
