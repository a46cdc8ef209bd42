// Package history cleans up ticket timelines returned by the backend.
package history

import (
	"strings"

	"github.com/spec-kit/miniticker/internal/domain"
)

// SystemCommentTitle is the title of the automatic entry the backend writes
// next to every user comment.
const SystemCommentTitle = "Comentario agregado"

// DefaultAuthor is used when an entry carries no attribution.
const DefaultAuthor = "Sistema"

var authorPrefixes = []string{"Por:", "Gestor responsable:"}

// Dedup removes entries the backend surfaces twice. Of entries sharing a
// (fecha, trimmed descripcion) pair only the newest, the last in the input,
// is kept. A comment whose trimmed body is contained in a status change at
// the same fecha is dropped too, wherever the status change sits in the
// input; this is a substring heuristic and can misfire on coincidental
// overlap. Survivors keep their relative input order and the input slice is
// not modified.
func Dedup(items []domain.HistorialItem) []domain.HistorialItem {
	if len(items) == 0 {
		return []domain.HistorialItem{}
	}

	seen := make(map[string]struct{}, len(items))
	kept := make([]domain.HistorialItem, 0, len(items))

	// newest first, the backend returns the list oldest first
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		body := strings.TrimSpace(item.Descripcion)
		key := item.Fecha + "\x00" + body
		if _, dup := seen[key]; dup {
			continue
		}
		if item.TipoEvento == domain.EventoComentario && supersededByStatusChange(items, i, body) {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}

	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	return kept
}

func supersededByStatusChange(items []domain.HistorialItem, self int, body string) bool {
	for j, other := range items {
		if j == self || other.TipoEvento != domain.EventoCambioEstado {
			continue
		}
		if other.Fecha != items[self].Fecha || other.Descripcion == "" {
			continue
		}
		if strings.Contains(other.Descripcion, body) {
			return true
		}
	}
	return false
}

// WithoutSystemComments drops the automatic "Comentario agregado" entries.
func WithoutSystemComments(items []domain.HistorialItem) []domain.HistorialItem {
	out := make([]domain.HistorialItem, 0, len(items))
	for _, item := range items {
		if item.Titulo == SystemCommentTitle {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Author extracts the person an entry is attributed to from its subtitle,
// falling back to fallback and then to "Sistema".
func Author(item domain.HistorialItem, fallback string) string {
	name := item.Subtitulo
	for _, prefix := range authorPrefixes {
		name = strings.Replace(name, prefix, "", 1)
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback
	}
	return DefaultAuthor
}

// Select picks the history source: the dedicated endpoint when it returned
// entries, the list embedded in the ticket otherwise.
func Select(fromEndpoint, embedded []domain.HistorialItem) []domain.HistorialItem {
	if len(fromEndpoint) > 0 {
		return fromEndpoint
	}
	return embedded
}
