package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/app"
	"github.com/anzway/learnterm/internal/config"
	"github.com/anzway/learnterm/internal/store"
)

// runApp loads config, opens the history database, builds the API client and
// launches the TUI on the given start screen.
func runApp(cmd *cobra.Command, start string) error {
	cfg := loadConfig(cmd)

	opts := app.Options{
		Config: cfg,
		Client: api.New(cfg.ServerURL, cfg.HTTPTimeout, cfg.Username, cfg.UserID),
		Start:  start,
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "History unavailable:", err)
	} else {
		st, err := store.Open(dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "History unavailable:", err)
		} else {
			defer st.Close()
			opts.Store = st
		}
	}

	return app.Run(opts)
}

// loadConfig merges flags over environment over defaults.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		cfg.ServerURL = s
	}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.Username = u
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	return cfg
}
