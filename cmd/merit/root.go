package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/merit/internal/api"
	"github.com/JaimeStill/merit/internal/config"
	"github.com/JaimeStill/merit/internal/generation"
	"github.com/JaimeStill/merit/internal/infrastructure"
)

var rootCmd = &cobra.Command{
	Use:   "merit",
	Short: "Teacher performance scoring and ranking",
	Long: `Merit scores teachers per reporting period from ratings and enrollments,
ranks each period's cohort, and records goals and achievements.

The generate and rank commands read the same configuration as the service
(config.toml, config.<MERIT_ENV>.toml and MERIT_* environment variables).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(generateCmd, rankCmd)
}

// session is a started infrastructure with the generation system built on it.
type session struct {
	infra      *infrastructure.Infrastructure
	generation generation.System
	location   *time.Location
	timeout    time.Duration
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, err
	}
	infra.Lifecycle.WaitForStartup()

	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	return &session{
		infra:      infra,
		generation: domain.Generation,
		location:   cfg.Scoring.Location(),
		timeout:    cfg.ShutdownTimeoutDuration(),
	}, nil
}

func (s *session) close() error {
	return s.infra.Lifecycle.Shutdown(s.timeout)
}

// signalContext is canceled on interrupt, so a running batch reports its
// unstarted teachers as canceled.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
