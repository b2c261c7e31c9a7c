package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all client configuration. It is loaded once at startup and
// treated as immutable for the lifetime of the program.
type Config struct {
	// ServerURL is the base URL of the tutoring backend.
	ServerURL string

	// Username and UserID identify the student on every session call.
	Username string
	UserID   string

	// HTTPTimeout is the maximum duration for a single backend request.
	HTTPTimeout time.Duration

	// PollInterval is the delay between audio-readiness polls.
	PollInterval time.Duration

	// PollBudget is the maximum number of readiness polls before the
	// wait is reported as timed out.
	PollBudget int

	// Marks are the mark weights the backend keeps question banks for.
	Marks []string

	// DBPath is the local history database file. Empty means the
	// default XDG path.
	DBPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ServerURL:    "http://localhost:8000",
		Username:     "Guest",
		HTTPTimeout:  60 * time.Second,
		PollInterval: 2 * time.Second,
		PollBudget:   60,
		Marks:        []string{"1", "2", "3", "5"},
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("ANZWAY_SERVER_URL"); u != "" {
		cfg.ServerURL = u
	}
	if n := os.Getenv("ANZWAY_USERNAME"); n != "" {
		cfg.Username = n
	}
	if id := os.Getenv("ANZWAY_USER_ID"); id != "" {
		cfg.UserID = id
	}
	if t := os.Getenv("ANZWAY_HTTP_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}
	if p := os.Getenv("ANZWAY_POLL_INTERVAL"); p != "" {
		if d, err := time.ParseDuration(p); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}
	if b := os.Getenv("ANZWAY_POLL_BUDGET"); b != "" {
		if n, err := strconv.Atoi(b); err == nil && n > 0 {
			cfg.PollBudget = n
		}
	}
	if m := os.Getenv("ANZWAY_MARKS"); m != "" {
		var marks []string
		for _, v := range strings.Split(m, ",") {
			if v = strings.TrimSpace(v); v != "" {
				marks = append(marks, v)
			}
		}
		if len(marks) > 0 {
			cfg.Marks = marks
		}
	}
	if p := os.Getenv("ANZWAY_DB"); p != "" {
		cfg.DBPath = p
	}

	return cfg
}

// ResolveDBPath returns the history database path: the configured path when
// set, otherwise $XDG_DATA_HOME/learnterm/history.db (or the ~/.local/share
// equivalent). The parent directory is created if missing.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, ensureDir(c.DBPath)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "learnterm", "history.db")
	return p, ensureDir(p)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
