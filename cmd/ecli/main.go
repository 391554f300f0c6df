package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ecli/internal/core"
	"ecli/internal/handler"
	"ecli/internal/httpapi"
	"ecli/internal/runner"
	"ecli/internal/tracker"
)

func main() {
	opts := &options{}
	root := buildRootCmd(opts)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ecli:", err)
		os.Exit(1)
	}
	os.Exit(opts.exitCode)
}

// setupLogging installs a console logger at level on every package that logs.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
	log.Logger = l
	core.SetLogger(l.With().Str("component", "core").Logger())
	tracker.SetLogger(l.With().Str("component", "tracker").Logger())
	handler.SetLogger(l.With().Str("component", "handler").Logger())
	runner.SetLogger(l.With().Str("component", "runner").Logger())
	httpapi.SetLogger(l.With().Str("component", "http").Logger())
	return nil
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
