package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bookkeeper/internal/client/client"
	"github.com/dmitrijs2005/bookkeeper/internal/client/config"
)

// App carries the state shared by every command.
type App struct {
	config     *config.Config
	configFile string
	in         *bufio.Reader
	out        io.Writer
}

// NewRootCmd builds the libraryctl command tree. in and out replace the
// terminal in tests.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	app := &App{config: cfg, in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Administer and use a BookKeeper library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.loadConfig(cmd)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&app.configFile, "config", "c", "", "client JSON config file")
	pf.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "BookKeeper API base URL")
	pf.StringVar(&cfg.SessionPath, "session", cfg.SessionPath, "session store path")
	pf.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "HTTP request timeout")

	root.AddCommand(
		app.newMigrateCmd(),
		app.newCreateAdminCmd(),
		app.newLoginCmd(),
		app.newLogoutCmd(),
		app.newBooksCmd(),
		app.newBorrowCmd(),
		app.newReturnCmd(),
		app.newCoverCmd(),
	)

	return root
}

// loadConfig overlays the JSON file, then re-applies flags the user set
// explicitly so they keep precedence.
func (a *App) loadConfig(cmd *cobra.Command) error {
	if a.configFile == "" {
		return nil
	}

	flags := cmd.Flags()
	server, _ := flags.GetString("server")
	session, _ := flags.GetString("session")
	timeout, _ := flags.GetDuration("timeout")

	if err := a.config.ApplyFile(a.configFile); err != nil {
		return err
	}

	if flags.Changed("server") {
		a.config.ServerURL = server
	}
	if flags.Changed("session") {
		a.config.SessionPath = session
	}
	if flags.Changed("timeout") {
		a.config.RequestTimeout = timeout
	}
	return nil
}

func (a *App) httpClient() *client.HTTPClient {
	return client.NewHTTPClient(a.config.ServerURL, a.config.RequestTimeout)
}

// authorizedClient returns a client carrying the saved access token.
func (a *App) authorizedClient(ctx context.Context) (*client.HTTPClient, error) {
	s, err := client.OpenSession(ctx, a.config.SessionPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	tok, err := s.AccessToken(ctx, a.config.ServerURL)
	if err != nil {
		return nil, err
	}

	c := a.httpClient()
	c.SetAccessToken(tok)
	return c, nil
}
