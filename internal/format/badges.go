// Package format maps domain values to presentation hints.
package format

import (
	"strings"

	"github.com/spec-kit/miniticker/internal/domain"
)

// Tone is a semantic color name a front-end maps to its palette.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
	ToneAccent  Tone = "accent"
	ToneMuted   Tone = "muted"
)

// PriorityTone colors a priority label.
func PriorityTone(prioridad string) Tone {
	switch strings.ToLower(strings.TrimSpace(prioridad)) {
	case "alta", "urgente":
		return ToneError
	case "media":
		return ToneInfo
	case "baja":
		return ToneSuccess
	default:
		return ToneNeutral
	}
}

// StatusTone colors a status label. Both "Resuelta" and "Resuelto" are sent
// by different endpoints.
func StatusTone(estado string) Tone {
	switch strings.ToLower(strings.TrimSpace(estado)) {
	case "resuelta", "resuelto":
		return ToneSuccess
	case "en proceso", "enproceso":
		return ToneInfo
	case "rechazada":
		return ToneError
	default:
		return ToneNeutral
	}
}

// Badge is a label with its tone.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// EstadoBadge builds the status badge of a ticket.
func EstadoBadge(e domain.Estado) Badge {
	return Badge{Label: e.Label(), Tone: StatusTone(e.Label())}
}

// PrioridadBadge builds the priority badge of a ticket.
func PrioridadBadge(p domain.Prioridad) Badge {
	return Badge{Label: p.String(), Tone: PriorityTone(p.String())}
}
