package export

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/miniticker/internal/dates"
	"github.com/spec-kit/miniticker/internal/domain"
)

// Sheet names of the dashboard workbook, in order.
const (
	SheetResumen     = "Resumen General"
	SheetTendencia   = "Tendencia Temporal"
	SheetSolicitante = "Top Solicitantes"
	SheetGestores    = "Top Gestores"
	SheetPrioridad   = "Por Prioridad"
	SheetEstatus     = "Estatus Global"
	SheetAreas       = "Desempeño Áreas"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
	widths []float64
}

// DashboardWorkbook renders a report snapshot as
// Reporte_MiniTicker_<period>_<d-m-yyyy>.xlsx. Sections without data still
// get a sheet with their header row.
func DashboardWorkbook(stats domain.DashboardStats, period string, now time.Time) (*File, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range workbookSheets(stats, now) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &File{
		Name:        fmt.Sprintf("Reporte_MiniTicker_%s_%s.xlsx", sanitizeName(period), dates.FileDate(now)),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func writeSheet(f *excelize.File, s sheet) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return fmt.Errorf("write %q header: %w", s.name, err)
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("write %q row %d: %w", s.name, i+2, err)
		}
	}
	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func workbookSheets(stats domain.DashboardStats, now time.Time) []sheet {
	k := stats.KPIs
	satisfaccion := "N/A"
	if k.Satisfaccion != 0 {
		satisfaccion = decimal(k.Satisfaccion)
	}
	resumen := sheet{
		name:   SheetResumen,
		header: []any{"Métrica", "Valor"},
		rows: [][]any{
			{"Total Solicitudes", k.Total},
			{"Completadas", k.Completadas},
			{"Pendientes", k.Pendientes},
			{"En Proceso", k.EnProceso},
			{"Vencidas", k.Vencidas},
			{"Rechazadas", k.Rechazadas},
			{"Tasa de Resolución", decimal(k.TasaResolucion) + "%"},
			{"Tiempo Promedio", decimal(k.TiempoPromedio) + " días"},
			{"Satisfacción", satisfaccion},
			{"Generado", dates.LongDateTime(now)},
		},
		widths: []float64{25, 15},
	}

	tendencia := sheet{name: SheetTendencia, header: []any{"Periodo", "Total", "Completadas", "Vencidas", "Rechazadas"}}
	for _, p := range stats.Tendencia {
		tendencia.rows = append(tendencia.rows, []any{p.Mes, p.Total, p.Completadas, p.Vencidas, p.Rechazadas})
	}

	solicitantes := sheet{name: SheetSolicitante, header: []any{"Ranking", "Nombre", "Cantidad"}}
	for i, r := range stats.TopSolicitantes {
		solicitantes.rows = append(solicitantes.rows, []any{i + 1, r.Nombre, r.Cantidad})
	}

	gestores := sheet{
		name:   SheetGestores,
		header: []any{"Ranking", "Nombre", "Area", "Total_Asignados", "En_Proceso", "Resueltas", "Rechazadas", "Vencidas"},
	}
	for i, g := range stats.TopGestores {
		area := g.Area
		if area == "" {
			area = "N/A"
		}
		gestores.rows = append(gestores.rows, []any{i + 1, g.Nombre, area, g.Cantidad, g.EnProceso, g.Resueltas, g.Rechazadas, g.Vencidas})
	}

	prioridad := sheet{name: SheetPrioridad, header: []any{"Prioridad", "Cantidad", "Porcentaje"}}
	total := 0
	for _, p := range stats.Prioridades {
		total += p.Cantidad
	}
	for _, p := range stats.Prioridades {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(p.Cantidad) / float64(total) * 100))
		}
		prioridad.rows = append(prioridad.rows, []any{p.Prioridad, p.Cantidad, strconv.Itoa(pct) + "%"})
	}

	estatus := sheet{name: SheetEstatus, header: []any{"Estado", "Cantidad"}}
	for _, s := range stats.Estatus {
		estatus.rows = append(estatus.rows, []any{s.Estado, s.Cantidad})
	}

	areas := sheet{name: SheetAreas, header: []any{"Area", "Total", "Completadas", "Vencidas", "Rechazadas"}}
	for _, a := range stats.DesempenoAreas {
		areas.rows = append(areas.rows, []any{a.Area, a.Total, a.Completadas, a.Vencidas, a.Rechazadas})
	}

	return []sheet{resumen, tendencia, solicitantes, gestores, prioridad, estatus, areas}
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
