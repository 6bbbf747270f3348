package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ahsanfayaz52/notespark/internal/app"
	"github.com/ahsanfayaz52/notespark/internal/config"
	"github.com/ahsanfayaz52/notespark/internal/identity"
	"github.com/ahsanfayaz52/notespark/internal/logging"
	"github.com/ahsanfayaz52/notespark/internal/models"
	"github.com/ahsanfayaz52/notespark/internal/notify"
	"github.com/ahsanfayaz52/notespark/internal/shell"
)

var (
	configPath string
	verbose    bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notespark",
	Short: "Take notes and watch them update live",
	Long: `NoteSpark keeps short tagged notes per user. Sign in once; the session
is remembered until you sign out.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = logging.New(os.Stderr, level, "console")
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// session bundles what a command needs. close must be called when done.
type session struct {
	app   *app.App
	shell *shell.Shell
}

func (s *session) close() {
	s.shell.Close()
	s.app.Close(context.Background())
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client := identity.NewClient(a.Accounts, a.JWT,
		identity.WithTokenStore(identity.FileTokenStore{Path: cfg.SessionFile}),
		identity.WithLogger(logger))
	if err := client.Restore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	sh := shell.New(client, a.Store,
		shell.WithNotifier(&notify.Writer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}),
		shell.WithLogger(logger))
	return &session{app: a, shell: sh}, nil
}

// requireUser returns the signed-in identity or a hint to sign in.
func (s *session) requireUser() (models.Identity, error) {
	if user, ok := s.shell.Session().Current().User(); ok {
		return user, nil
	}
	return models.Identity{}, fmt.Errorf("not signed in; run `notespark signin` first")
}
