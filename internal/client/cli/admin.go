package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
)

// storeFlags selects the database for the administrative commands.
type storeFlags struct {
	serverConfig string
	driver       string
	dsn          string
}

func (f *storeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.serverConfig, "server-config", "", "server JSON config file")
	cmd.Flags().StringVar(&f.driver, "driver", "", "database driver (pgx or sqlite)")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "database DSN")
}

// resolve applies defaults, then the server config file, then flags.
func (f *storeFlags) resolve() (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	if f.serverConfig != "" {
		if err := cfg.ApplyFile(f.serverConfig); err != nil {
			return nil, err
		}
	}
	if f.driver != "" {
		cfg.DatabaseDriver = f.driver
	}
	if f.dsn != "" {
		cfg.DatabaseDSN = f.dsn
	}
	return cfg, nil
}

// openStore connects and migrates the configured store.
func (f *storeFlags) openStore(ctx context.Context) (*config.Config, *sql.DB, repomanager.RepositoryManager, error) {
	cfg, err := f.resolve()
	if err != nil {
		return nil, nil, nil, err
	}

	db, m, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, m, nil
}

func (a *App) newMigrateCmd() *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, _, err := sf.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintln(a.out, "migrations applied")
			return nil
		},
	}
	sf.bind(cmd)
	return cmd
}

// newCreateAdminCmd bootstraps an administrator; registration over HTTP
// never grants the admin flag.
func (a *App) newCreateAdminCmd() *cobra.Command {
	var (
		sf    storeFlags
		name  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			password, err := promptPassword(a.out, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword(a.out, "Repeat password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			cfg, db, m, err := sf.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			us := services.NewUserService(db, m, cfg)
			user, err := us.Create(ctx, services.UserInput{
				Name:     name,
				Email:    email,
				Password: password,
				IsAdmin:  true,
			})
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Fprintf(a.out, "admin %s created with id %s\n", user.Email, user.ID)
			return nil
		},
	}
	sf.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
