// Command as2ctl is an administrative CLI for the AS2 gateway: it opens
// the same SQLite database and data directory the daemon uses and lets
// an operator send a document, inspect messages and their log history, force a
// retry, or run migrations without going through the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/as2gw/gateway/internal/config"
	"github.com/as2gw/gateway/internal/database"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/as2gw/gateway/internal/secrets"
	"github.com/as2gw/gateway/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "as2ctl",
	Short:         "Administer the AS2 gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newRetryCmd())
	rootCmd.AddCommand(newMigrateCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ctlStores bundles the handles every subcommand needs; opened fresh per
// invocation since as2ctl is a short-lived process, not a daemon.
type ctlStores struct {
	db      *database.DB
	store   *store.Store
	profile *profile.Store
	secrets *secrets.Store
}

func openStores() (*ctlStores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	secretStore, err := secrets.NewStore(db.DB, cfg.DataDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open secrets store: %w", err)
	}

	return &ctlStores{
		db:      db,
		store:   store.NewStore(db.DB, cfg.DataDir),
		profile: profile.NewStore(db.DB, cfg.DataDir),
		secrets: secretStore,
	}, nil
}

func (c *ctlStores) Close() {
	c.db.Close()
}
