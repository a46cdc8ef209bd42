package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/export"
)

func newExportCommand(rt *runtime) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate ticket PDFs and dashboard workbooks",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&outDir, "out", "o", ".", "output directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "ticket <id>",
		Short: "Write Ticket-<numero>.pdf with the ticket and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				state, err := c.Stores.Detail.Open(ctx, args[0])
				if err != nil {
					return err
				}
				if state.Detail == nil {
					return fmt.Errorf("ticket %s not found", args[0])
				}
				ticket := state.Detail.Ticket
				ticket.Historial = make([]domain.HistorialItem, 0, len(state.Detail.Historial))
				for _, h := range state.Detail.Historial {
					ticket.Historial = append(ticket.Historial, h.HistorialItem)
				}
				file, err := export.TicketPDF(ticket, c.Location)
				if err != nil {
					return err
				}
				return writeExport(cmd, outDir, file)
			})
		},
	})

	var period, area string
	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Write the report workbook of a period",
		Long: `dashboard writes Reporte_MiniTicker_<period>_<date>.xlsx with the summary,
trend, top requesters and managers, priority, status and area sheets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				c.Stores.Dashboard.ChangePeriod(period)
				c.Stores.Dashboard.SelectArea(area)
				v := c.Stores.Dashboard.Load(ctx)
				if v.Err != nil {
					return v.Err
				}
				file, err := export.DashboardWorkbook(v.Stats, v.Period, c.Clock.Now())
				if err != nil {
					return err
				}
				return writeExport(cmd, outDir, file)
			})
		},
	}
	dashboardCmd.Flags().StringVar(&period, "period", "este-mes", "report period")
	dashboardCmd.Flags().StringVar(&area, "area", "", "area id, empty for every area")
	cmd.AddCommand(dashboardCmd)
	return cmd
}

func writeExport(cmd *cobra.Command, dir string, file *export.File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
