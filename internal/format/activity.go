package format

import "github.com/spec-kit/miniticker/internal/domain"

// ActivityConfig describes how an activity kind is shown.
type ActivityConfig struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Tone  Tone   `json:"tone"`
}

var defaultActivity = ActivityConfig{Label: "Actividad", Icon: "infoCircle", Tone: ToneMuted}

var activityConfigs = map[string]ActivityConfig{
	domain.ActivityCreado:                    {Label: "Ticket Creado", Icon: "plus", Tone: ToneSuccess},
	domain.ActivityCambioEstado:              {Label: "Cambio de Estado", Icon: "refresh", Tone: ToneInfo},
	domain.ActivityComentario:                {Label: "Nuevo Comentario", Icon: "chat", Tone: ToneWarning},
	domain.ActivityAsignado:                  {Label: "Asignado", Icon: "userCheck", Tone: ToneAccent},
	domain.ActivityPrioridadCritica:          {Label: "Prioridad Crítica", Icon: "alertCircle", Tone: ToneError},
	domain.ActivityLogin:                     {Label: "Sesión Iniciada", Icon: "login", Tone: ToneSuccess},
	domain.ActivityLogout:                    {Label: "Sesión Cerrada", Icon: "logout", Tone: ToneNeutral},
	domain.ActivityUsuarioCreado:             {Label: "Usuario Registrado", Icon: "userPlus", Tone: ToneInfo},
	domain.ActivityUsuarioActualizado:        {Label: "Perfil Actualizado", Icon: "userSettings", Tone: ToneAccent},
	domain.ActivityUsuarioEstadoCambio:       {Label: "Estado Usuario", Icon: "userShield", Tone: ToneWarning},
	domain.ActivityAreaCreada:                {Label: "Área Creada", Icon: "building", Tone: ToneAccent},
	domain.ActivityAreaActualizada:           {Label: "Área Editada", Icon: "edit", Tone: ToneAccent},
	domain.ActivityAreaEliminada:             {Label: "Área Eliminada", Icon: "trash", Tone: ToneError},
	domain.ActivityAreaEstadoCambio:          {Label: "Estado Área", Icon: "refresh", Tone: ToneWarning},
	domain.ActivityAreaResponsableQuitar:     {Label: "Responsable Desvinculado", Icon: "userX", Tone: ToneNeutral},
	domain.ActivityTipoSolicitudCreado:       {Label: "Tipo Creado", Icon: "filePlus", Tone: ToneSuccess},
	domain.ActivityTipoSolicitudEliminado:    {Label: "Tipo Eliminado", Icon: "fileMinus", Tone: ToneError},
	domain.ActivityTipoSolicitudEstadoCambio: {Label: "Estado Tipo", Icon: "refresh", Tone: ToneWarning},
}

// Activity returns the presentation of an activity kind. Unknown kinds get a
// generic "Actividad" entry.
func Activity(tipo string) ActivityConfig {
	if cfg, ok := activityConfigs[tipo]; ok {
		return cfg
	}
	return defaultActivity
}
