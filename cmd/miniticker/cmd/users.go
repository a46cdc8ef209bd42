package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/store"
)

func newUsersCommand(rt *runtime) *cobra.Command {
	var filters store.UserFilters
	var status string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				filters.Status = store.StatusFilter(status)
				c.Stores.Users.SetFilters(filters)
				v := c.Stores.Users.Load(ctx)
				if v.Err != nil && len(v.Items) == 0 {
					return v.Err
				}
				return rt.print(cmd.OutOrStdout(), v, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNOMBRE\tEMAIL\tROL\tACTIVO")
					for _, u := range v.Items {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Nombre, u.Email, u.Rol, u.Activo)
					}
					_ = tw.Flush()
					fmt.Fprintf(w, "%d usuarios, %d activos, %d inactivos\n", v.KPIs.Total, v.KPIs.Activos, v.KPIs.Inactivos)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filters.Search, "search", "s", "", "name or email contains")
	f.StringVar(&filters.Role, "role", store.AllRoles, "Solicitante, Gestor, Admin or SuperAdmin")
	f.StringVar(&status, "status", string(store.StatusTodos), "todos, activos or inactivos")
	return cmd
}

func newViewModeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "view-mode [grid|table]",
		Short:     "Show or set how ticket lists are printed",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(store.ViewGrid), string(store.ViewTable)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				if len(args) == 1 {
					mode := store.ViewMode(args[0])
					if mode != store.ViewGrid && mode != store.ViewTable {
						return fmt.Errorf("unknown view mode %q", args[0])
					}
					if err := c.Stores.UI.SetViewMode(ctx, mode); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.Stores.UI.ViewMode(ctx))
				return nil
			})
		},
	}
}
