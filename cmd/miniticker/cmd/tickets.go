package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/store"
)

func newTicketsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"solicitudes"},
		Short:   "Browse and act on tickets",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newTicketsListCommand(rt))
	cmd.AddCommand(newTicketsCountsCommand(rt))
	cmd.AddCommand(newTicketsShowCommand(rt))
	cmd.AddCommand(newTicketsStatusCommand(rt))
	cmd.AddCommand(newTicketsCommentCommand(rt))
	cmd.AddCommand(newTicketsAssignCommand(rt))
	return cmd
}

func newTicketsListCommand(rt *runtime) *cobra.Command {
	var (
		search    string
		area      string
		prioridad string
		tab       string
		gestor    string
		page      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets visible to the signed-in user",
		Long: `list prints one page of tickets. Requesters only see their own tickets
and managers the ones of their area.

Examples:
  miniticker tickets list --tab nueva
  miniticker tickets list --search impresora --prioridad Alta --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				if c.Stores.Auth.CurrentUser(ctx) == nil {
					return errNotSignedIn
				}
				list := c.Stores.Solicitudes
				list.SetSearchTerm(search)
				list.SetTypeFilter(area)
				list.SetPriorityFilter(prioridad)
				list.SetActiveTab(store.Tab(tab))
				list.SetGestorFilter(store.GestorFilter(gestor))
				list.SetPage(page)

				v, err := list.Load(ctx)
				if err != nil && len(v.Items) == 0 {
					return err
				}
				mode := c.Stores.UI.ViewMode(ctx)
				return rt.print(cmd.OutOrStdout(), v, func(w io.Writer) {
					printTickets(w, v, mode)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&search, "search", "s", "", "free text search")
	f.StringVar(&area, "area", store.AllTypes, "area id")
	f.StringVar(&prioridad, "prioridad", store.AllPriorities, "Baja, Media or Alta")
	f.StringVar(&tab, "tab", string(store.TabTodas), "todas, nueva, proceso, resuelta, cerrada or rechazada")
	f.StringVar(&gestor, "gestor", string(store.GestorTodos), "todos, con or sin")
	f.IntVar(&page, "page", 1, "page number")
	return cmd
}

func printTickets(w io.Writer, v store.ListView, mode store.ViewMode) {
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "No hay solicitudes.")
		return
	}
	if mode == store.ViewTable {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tESTADO\tPRIORIDAD\tFECHA\tSOLICITANTE\tTITULO")
		for _, s := range v.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Estado, s.Prioridad, s.Fecha, s.Solicitante, s.Titulo)
		}
		_ = tw.Flush()
	} else {
		for _, s := range v.Items {
			fmt.Fprintf(w, "%s  %s\n", s.ID, s.Titulo)
			fmt.Fprintf(w, "    %s · %s · %s · %s\n", s.Estado, s.Prioridad, s.Tipo, s.Fecha)
			if s.Responsable != nil {
				fmt.Fprintf(w, "    Responsable: %s\n", *s.Responsable)
			}
		}
	}
	fmt.Fprintf(w, "Página %d de %d (%d solicitudes)\n", v.CurrentPage, v.TotalPages, v.Total)
	if v.Err != nil {
		fmt.Fprintf(w, "Aviso: %v\n", v.Err)
	}
}

func newTicketsCountsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show the ticket count per status tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				counts, err := c.Stores.Solicitudes.Counts(ctx)
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), counts, func(w io.Writer) {
					fmt.Fprintf(w, "Todas %d · Nuevas %d · En proceso %d · Resueltas %d · Cerradas %d · Rechazadas %d\n",
						counts.Todas, counts.Nueva, counts.Proceso, counts.Resuelta, counts.Cerrada, counts.Rechazada)
				})
			})
		},
	}
}

func newTicketsShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a ticket with its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				state, err := c.Stores.Detail.Open(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), state, func(w io.Writer) {
					printDetail(w, state)
				})
			})
		},
	}
}

func printDetail(w io.Writer, state store.DetailState) {
	d := state.Detail
	if d == nil {
		fmt.Fprintln(w, state.Error)
		return
	}
	t := d.Ticket
	fmt.Fprintf(w, "#%s  %s\n", t.Numero, t.Asunto)
	fmt.Fprintf(w, "Estado: %s   Prioridad: %s   Área: %s\n", d.EstadoBadge.Label, d.PrioridadBadge.Label, t.AreaNombre())
	fmt.Fprintf(w, "Solicitante: %s   Gestor: %s\n", t.SolicitanteNombre("Desconocido"), orDash(t.GestorNombre()))
	fmt.Fprintf(w, "Creado: %s\n\n", d.FechaDisplay)
	if t.Descripcion != "" {
		fmt.Fprintln(w, t.Descripcion)
		fmt.Fprintln(w)
	}
	for _, h := range d.Historial {
		fmt.Fprintf(w, "  %s  %s (%s)\n", h.FechaDisplay, h.Titulo, h.Autor)
		if h.Descripcion != "" {
			fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(h.Descripcion, "\n", "\n      "))
		}
	}
	if state.Error != "" {
		fmt.Fprintf(w, "\nAviso: %s\n", state.Error)
	}
}

func orDash(s string) string {
	if s == "" {
		return "---"
	}
	return s
}

func newTicketsStatusCommand(rt *runtime) *cobra.Command {
	var motivo string

	cmd := &cobra.Command{
		Use:   "status <id> <estado>",
		Short: "Change the status of a ticket",
		Long: `status moves a ticket to Nueva, En Proceso, Resuelta, Cerrada or
Rechazada. The backend decides which transitions are allowed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			estado, ok := domain.ParseEstado(args[1])
			if !ok {
				return fmt.Errorf("unknown estado %q", args[1])
			}
			return rt.detailAction(cmd, args[0], func(ctx context.Context, d *store.TicketDetailStore) error {
				return d.ChangeStatus(ctx, estado, motivo)
			})
		},
	}
	cmd.Flags().StringVarP(&motivo, "motivo", "m", "", "reason shown in the history")
	return cmd
}

func newTicketsCommentCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <texto>",
		Short: "Add a comment to a ticket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			texto := strings.Join(args[1:], " ")
			return rt.detailAction(cmd, args[0], func(ctx context.Context, d *store.TicketDetailStore) error {
				return d.AddComment(ctx, texto)
			})
		},
	}
}

func newTicketsAssignCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <gestorId>",
		Short: "Assign a manager to a ticket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.detailAction(cmd, args[0], func(ctx context.Context, d *store.TicketDetailStore) error {
				return d.AssignManager(ctx, args[1])
			})
		},
	}
}

// detailAction opens the ticket, runs action and prints the reloaded detail.
func (rt *runtime) detailAction(cmd *cobra.Command, id string, action func(context.Context, *store.TicketDetailStore) error) error {
	return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
		detail := c.Stores.Detail
		if _, err := detail.Open(ctx, id); err != nil {
			return err
		}
		if err := action(ctx, detail); err != nil {
			return err
		}
		state := detail.State()
		return rt.print(cmd.OutOrStdout(), state, func(w io.Writer) {
			printDetail(w, state)
		})
	})
}
