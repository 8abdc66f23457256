package scheduler

import (
	"context"
	"log/slog"
	"time"

	"blogfeed/internal/domain"
)

// Compiler defines the interface for compile runs.
type Compiler interface {
	Compile(ctx context.Context) (*domain.CompileStats, error)
}

// Scheduler runs the compiler once on start, then on every interval tick and
// every trigger. Runs never overlap; triggers arriving during a run collapse
// into one follow-up run.
type Scheduler struct {
	compiler   Compiler
	interval   time.Duration
	runTimeout time.Duration
	triggers   chan struct{}
	logger     *slog.Logger
}

func NewScheduler(compiler Compiler, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		compiler:   compiler,
		interval:   interval,
		runTimeout: 5 * time.Minute,
		triggers:   make(chan struct{}, 1),
		logger:     logger.With("component", "scheduler"),
	}
}

// Trigger requests a run as soon as the current one (if any) finishes.
func (s *Scheduler) Trigger() {
	select {
	case s.triggers <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCompile(ctx, "start")

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-tick:
			s.runCompile(ctx, "interval")
		case <-s.triggers:
			s.runCompile(ctx, "trigger")
		}
	}
}

func (s *Scheduler) runCompile(ctx context.Context, reason string) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.compiler.Compile(runCtx); err != nil {
		s.logger.Error("compile failed", "reason", reason, "error", err)
	}
}
