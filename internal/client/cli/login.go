package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bookkeeper/internal/client/client"
)

func (a *App) newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if email == "" {
				var err error
				if email, err = promptText(a.in, a.out, "Email: "); err != nil {
					return err
				}
			}
			password, err := promptPassword(a.out, "Password: ")
			if err != nil {
				return err
			}

			tok, err := a.httpClient().Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			s, err := client.OpenSession(ctx, a.config.SessionPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Save(ctx, a.config.ServerURL, tok.AccessToken); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "logged in, token valid until %s\n", tok.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := client.OpenSession(cmd.Context(), a.config.SessionPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}
