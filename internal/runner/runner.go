// Package runner owns the lifecycle of one pipeline pass: OS signal
// cancellation, the optional overall deadline, and final status logging.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type Runner struct {
	logger  *slog.Logger
	timeout time.Duration
}

func New(logger *slog.Logger, timeout time.Duration) *Runner {
	return &Runner{logger: logger, timeout: timeout}
}

// Run executes one pass. SIGINT/SIGTERM cancel the context; because every
// pass persists progress as it goes, an interrupted run resumes where it
// stopped on the next invocation.
func (r *Runner) Run(ctx context.Context, name string, pass func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Info("starting pass", "pass", name)

	err := pass(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn("pass interrupted, progress saved", "pass", name, "error", err)
		return err
	case err != nil:
		r.logger.Error("pass failed", "pass", name, "error", err)
		return err
	}

	r.logger.Info("pass finished", "pass", name)
	return nil
}
