package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/domain"
)

func newCatalogCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List areas and request types",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "areas",
		Short: "List every area, active and inactive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				areas, err := c.Stores.Department.Areas(ctx)
				if err != nil {
					return err
				}
				kpis, _ := c.Stores.Department.KPIs(ctx)
				return rt.print(cmd.OutOrStdout(), areas, func(w io.Writer) {
					printAreas(w, areas)
					fmt.Fprintf(w, "%d áreas (%d activas, %d inactivas), %d solicitudes\n",
						kpis.Total, kpis.Activas, kpis.Inactivas, kpis.TotalSolicitudes)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tipos <areaId>",
		Short: "List the request types of an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				c.Stores.Department.SelectArea(args[0])
				tipos, err := c.Stores.Department.Types(ctx)
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), tipos, func(w io.Writer) {
					for _, t := range tipos {
						state := "activo"
						if !t.Activo {
							state = "inactivo"
						}
						fmt.Fprintf(w, "%s  %s (%s)\n", t.ID, t.Nombre, state)
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "managers",
		Short: "List managers that can be assigned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				opts, err := c.Stores.Department.ManagerOptions(ctx)
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), opts, func(w io.Writer) {
					for _, o := range opts {
						fmt.Fprintf(w, "%s  %s\n", o.Value, o.Label)
					}
				})
			})
		},
	})
	return cmd
}

func printAreas(w io.Writer, areas []domain.Area) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPREFIJO\tNOMBRE\tACTIVA\tSOLICITUDES")
	for _, a := range areas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", a.ID, a.Prefijo, a.Nombre, a.Activo, a.StatsOrZero().Total)
	}
	_ = tw.Flush()
}
