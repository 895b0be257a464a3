package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/config"
	"gwi.com/journal-companion/internal/core"
	"gwi.com/journal-companion/internal/logging"
	"gwi.com/journal-companion/internal/store"
)

var (
	verbose   bool
	userEmail string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "journalctl",
	Short: "Inspect and manage journal entries from the command line",
	Long: `Operate on the journal database the API server uses.

The store backend and connection string come from the same environment
variables (or .env file) as the server.

Quick Start:
  journalctl --user me@example.com stats          # Streaks and mood
  journalctl --user me@example.com entries        # Entries grouped by day
  journalctl --user me@example.com export -f json # Export all entries
  journalctl migrate                              # Apply PostgreSQL migrations`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "WARN"
		if verbose {
			level = "DEBUG"
		}
		logging.Setup(level)

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&userEmail, "user", "u", "", "Email of the account to operate on")

	rootCmd.AddCommand(statsCmd, entriesCmd, addCmd, exportCmd, migrateCmd)
}

// session is an open store together with the account the command acts for.
type session struct {
	store   store.Store
	user    auth.UserContext
	entries *core.EntryService
}

func (s *session) Close() error {
	return s.store.Close()
}

func openSession(ctx context.Context) (*session, error) {
	if userEmail == "" {
		return nil, fmt.Errorf("--user is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.StoreBackend, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	u, err := st.GetUserByEmail(ctx, userEmail)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("user %s: %w", userEmail, err)
	}

	return &session{
		store:   st,
		user:    auth.UserContext{UserID: u.ID, Email: u.Email},
		entries: core.NewEntryService(st, st.Changes(), loc),
	}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, time.Minute)
}
