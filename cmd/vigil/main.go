package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vigilclub/vigil/internal/config"
	"github.com/vigilclub/vigil/internal/log"
	"github.com/vigilclub/vigil/internal/session"
	"github.com/vigilclub/vigil/internal/tokenstore"
	"github.com/vigilclub/vigil/internal/tui"
	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var logStderr bool

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Terminal client for the club's events and check-in desk",
	Long: `vigil browses club events, registers you for them and, for staff
accounts, runs the ticket check-in desk and the notification inbox.

Running vigil with no command opens the interactive UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logStderr, "log-stderr", false, "write logs to stderr instead of ~/.vigil/vigil.log")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the wired client stack shared by every command.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *tokenstore.Store
	client  *client.Client
	session *session.Manager

	closers []func()
}

// setup loads config and wires logger, token store, API client and session
// manager. The session is restored from the store before returning.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	if !logStderr {
		f, err := log.OpenFile(cfg.LogPath())
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, func() { f.Close() }) //nolint:errcheck
		out = f
	}
	a.logger = log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: out,
	})

	if cfg.Token != "" {
		// VIGIL_TOKEN never touches the credentials file.
		a.store = tokenstore.New(tokenstore.NewMemoryBackend(), a.logger)
		a.store.Save(domain.Tokens{Access: cfg.Token})
	} else {
		a.store = tokenstore.New(tokenstore.NewFileBackend(cfg.CredentialsPath()), a.logger)
	}

	a.session = session.New(session.Config{
		Store:         a.store,
		RequireUSN:    cfg.RequireUSN,
		PendingPolicy: session.ParsePendingPolicy(cfg.PendingPolicy),
		SignOut: func(ctx context.Context, t domain.Tokens) error {
			return a.client.WithBearer(t.Access).RevokeSession(ctx, t.Refresh)
		},
		Logger: a.logger,
	})
	a.client = client.New(cfg.APIURL, a.session,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithVerifyRate(cfg.VerifyRate),
	)
	a.closers = append(a.closers, a.client.Intercept(a.session.Interceptor()))

	a.session.Initialize(ctx)
	a.logger.Debug("session restored", "logged_in", a.session.Snapshot().LoggedIn(), "api", cfg.APIURL)
	return a, nil
}

// close waits for background sign-out and releases resources in reverse
// order.
func (a *app) close() {
	a.session.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	p := tea.NewProgram(tui.NewApp(a.client, a.session, a.cfg.BaseURL),
		tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	unsubscribe := tui.Subscribe(p, a.session)
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
