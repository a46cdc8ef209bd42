package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/spec-kit/miniticker/internal/dates"
	"github.com/spec-kit/miniticker/internal/domain"
)

// Placeholders for missing ticket content.
const (
	NoDescription = "No hay descripción."
	NoHistory     = "No hay historial disponible."
)

var palette = struct {
	primary, textDark, textGray, bgLight, border, orange, green string
}{
	primary:  "#3B82F6",
	textDark: "#111827",
	textGray: "#6B7280",
	bgLight:  "#F9FAFB",
	border:   "#E5E7EB",
	orange:   "#F59E0B",
	green:    "#10B981",
}

const (
	pageMargin = 15.0
	topY       = 20.0
)

// DotColor is the timeline marker color of a history entry, picked by
// keywords in its title.
func DotColor(titulo string) string {
	t := strings.ToLower(titulo)
	color := palette.primary
	if strings.Contains(t, "estado") || strings.Contains(t, "prioridad") {
		color = palette.orange
	}
	if strings.Contains(t, "asignado") || strings.Contains(t, "tomado") {
		color = palette.green
	}
	return color
}

// pdfDate renders backend dates for print. Localized strings are printed
// as sent; unparseable ones fall back to the raw text.
func pdfDate(raw string, loc *time.Location) string {
	if strings.TrimSpace(raw) == "" {
		return "N/A"
	}
	if strings.Contains(raw, "/") {
		return raw
	}
	return dates.Parse(raw, loc).OrRaw(func(t time.Time) string { return dates.NumericDateTime(t.In(loc)) })
}

type ticketDoc struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	pageW, pageH float64
	contentW     float64
	y            float64
}

// TicketPDF renders a ticket with its timeline as Ticket-<numero>.pdf.
// Content that does not fit continues on a new page.
func TicketPDF(ticket domain.Ticket, loc *time.Location) (*File, error) {
	if loc == nil {
		loc = time.Local
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, topY, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	d := &ticketDoc{
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		pageW:    pageW,
		pageH:    pageH,
		contentW: pageW - 2*pageMargin,
		y:        topY,
	}
	d.header(ticket)
	d.people(ticket, loc)
	d.description(ticket.Descripcion)
	d.timeline(ticket.Historial, loc)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write ticket pdf: %w", err)
	}
	return &File{
		Name:        "Ticket-" + sanitizeName(ticket.Numero) + ".pdf",
		ContentType: ContentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}

func (d *ticketDoc) font(style string, size float64, color string) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.SetTextColor(rgb(color))
}

func (d *ticketDoc) text(x, y float64, s string) {
	d.pdf.Text(x, y, d.tr(s))
}

// split wraps s to width w in the current font. Lines come back encoded for
// the core fonts.
func (d *ticketDoc) split(s string, w float64) []string {
	encoded := d.tr(s)
	latin := make([]rune, len(encoded))
	for i := 0; i < len(encoded); i++ {
		latin[i] = rune(encoded[i])
	}
	lines := d.pdf.SplitText(string(latin), w)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		b := make([]byte, 0, len(line))
		for _, r := range line {
			b = append(b, byte(r))
		}
		out = append(out, string(b))
	}
	return out
}

func (d *ticketDoc) ensure(space float64) {
	if d.y > d.pageH-space {
		d.pdf.AddPage()
		d.y = topY
	}
}

func (d *ticketDoc) header(t domain.Ticket) {
	numero := t.Numero
	if numero == "" {
		numero = "---"
	}
	d.font("B", 10, palette.primary)
	d.text(pageMargin, d.y, "TICKET #"+numero)

	status := strings.ToUpper(t.Estado.Label())
	d.font("B", 10, palette.textDark)
	d.text(d.pageW-pageMargin-d.pdf.GetStringWidth(d.tr(status)), d.y, status)
	d.y += 10

	asunto := t.Asunto
	if asunto == "" {
		asunto = "Sin Asunto"
	}
	d.font("B", 18, palette.textDark)
	lines := d.split(asunto, d.contentW)
	for i, line := range lines {
		d.pdf.Text(pageMargin, d.y+float64(i)*8, line)
	}
	d.y += float64(len(lines))*8 + 5

	d.pdf.SetDrawColor(rgb(palette.border))
	d.pdf.Line(pageMargin, d.y, d.pageW-pageMargin, d.y)
	d.y += 10
}

func (d *ticketDoc) cell(label, value, sub string, x float64) {
	d.font("B", 8, palette.textGray)
	d.text(x, d.y, strings.ToUpper(label))

	if value == "" {
		value = "N/A"
	}
	d.font("", 10, palette.textDark)
	d.text(x, d.y+5, value)

	if sub != "" {
		d.font("", 9, palette.textGray)
		d.text(x, d.y+10, sub)
	}
}

func (d *ticketDoc) people(t domain.Ticket, loc *time.Location) {
	col := d.contentW / 2

	var solicitante, solicitanteEmail string
	if t.Solicitante != nil {
		solicitante, solicitanteEmail = t.Solicitante.Nombre, t.Solicitante.Email
	}
	gestor, gestorEmail := "Sin Asignar", ""
	if t.Gestor != nil && t.Gestor.Nombre != "" {
		gestor, gestorEmail = t.Gestor.Nombre, t.Gestor.Email
	}
	d.cell("Solicitante", solicitante, solicitanteEmail, pageMargin)
	d.cell("Gestor / Responsable", gestor, gestorEmail, pageMargin+col)
	d.y += 20

	area := "General"
	switch {
	case t.Area != nil && t.Area.Nombre != "":
		area = t.Area.Nombre
	case t.TipoSolicitud != nil && t.TipoSolicitud.Nombre != "":
		area = t.TipoSolicitud.Nombre
	}
	d.cell("Creado El", pdfDate(t.FechaCreacion, loc), "", pageMargin)
	d.cell("Área / Tipo", area, "", pageMargin+col)
	d.y += 20
}

func (d *ticketDoc) description(desc string) {
	d.font("B", 9, palette.textGray)
	d.text(pageMargin, d.y, "DESCRIPCIÓN DEL PROBLEMA")
	d.y += 5

	if strings.TrimSpace(desc) == "" {
		desc = NoDescription
	}
	d.font("", 10, palette.textDark)
	lines := d.split(desc, d.contentW-10)
	box := float64(len(lines))*6 + 10
	d.ensure(box + 15)

	d.pdf.SetFillColor(rgb(palette.bgLight))
	d.pdf.SetDrawColor(rgb(palette.border))
	d.pdf.RoundedRect(pageMargin, d.y, d.contentW, box, 3, "1234", "FD")
	for i, line := range lines {
		d.pdf.Text(pageMargin+5, d.y+8+float64(i)*6, line)
	}
	d.y += box + 15
}

func (d *ticketDoc) timeline(items []domain.HistorialItem, loc *time.Location) {
	d.ensure(40)
	d.font("B", 10, palette.textGray)
	d.text(pageMargin, d.y, "LÍNEA DE TIEMPO / HISTORIAL")
	d.y += 10

	if len(items) == 0 {
		d.font("I", 10, palette.textGray)
		d.text(pageMargin, d.y+5, NoHistory)
		return
	}

	lineX := pageMargin + 4
	contentX := lineX + 12
	for i, item := range items {
		d.ensure(30)

		if i < len(items)-1 {
			d.pdf.SetDrawColor(rgb(palette.border))
			d.pdf.SetLineWidth(0.5)
			d.pdf.Line(lineX, d.y, lineX, d.y+25)
		}
		d.pdf.SetFillColor(rgb(DotColor(item.Titulo)))
		d.pdf.SetDrawColor(255, 255, 255)
		d.pdf.Circle(lineX, d.y+2, 2.5, "FD")

		titulo := item.Titulo
		if titulo == "" {
			titulo = "Evento"
		}
		d.font("B", 10, palette.textDark)
		d.text(contentX, d.y+3, titulo)

		fecha := pdfDate(item.Fecha, loc)
		d.font("", 8, palette.textGray)
		d.text(d.pageW-pageMargin-d.pdf.GetStringWidth(d.tr(fecha)), d.y+3, fecha)

		if item.Subtitulo != "" {
			d.y += 5
			d.font("", 9, palette.textGray)
			d.text(contentX, d.y+3, item.Subtitulo)
		}
		d.y += 6

		if item.Descripcion == "" {
			d.y += 5
			continue
		}
		msgW := d.contentW - 12 - 5
		d.font("", 9, palette.textDark)
		lines := d.split(item.Descripcion, msgW-6)
		box := float64(len(lines))*5 + 6
		d.pdf.SetDrawColor(rgb(palette.border))
		d.pdf.SetLineWidth(0.2)
		d.pdf.RoundedRect(contentX, d.y, msgW, box, 2, "1234", "D")
		for j, line := range lines {
			d.pdf.Text(contentX+3, d.y+5+float64(j)*5, line)
		}
		d.y += box + 8
	}
}
