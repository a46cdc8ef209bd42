package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/miniticker/internal/app"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `login signs in against the backend and persists the token and user in
the configured storage. The password is read from --password, the
MINITICKER_PASSWORD variable or the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("MINITICKER_PASSWORD")
			}
			if password == "" {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = line
			}
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				resp, err := c.Stores.Auth.Login(ctx, email, password)
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), resp.User, func(w io.Writer) {
					fmt.Fprintf(w, "Signed in as %s (%s)\n", resp.User.Nombre, resp.User.Rol)
					if resp.DebeCambiarPassword || resp.User.DebeCambiarPassword {
						fmt.Fprintln(w, "A new password must be set before continuing.")
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				if err := c.Stores.Auth.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				user := c.Stores.Auth.CurrentUser(ctx)
				if user == nil {
					return errNotSignedIn
				}
				return rt.print(cmd.OutOrStdout(), user, func(w io.Writer) {
					fmt.Fprintf(w, "%s <%s> %s\n", user.Nombre, user.Email, user.Rol)
				})
			})
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
