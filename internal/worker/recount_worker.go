package worker

import (
	"context"
	"log/slog"
	"time"
)

// Recounter recomputes organization user counts.
type Recounter interface {
	RecountAll(ctx context.Context) (int, error)
}

// RecountWorker periodically brings every organization's coach and
// participant counts in line with its users table.
type RecountWorker struct {
	recounter Recounter
	logger    *slog.Logger
	interval  time.Duration
}

// NewRecountWorker creates a new recount worker
func NewRecountWorker(recounter Recounter, logger *slog.Logger, interval time.Duration) *RecountWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RecountWorker{
		recounter: recounter,
		logger:    logger.With(slog.String("component", "recount_worker")),
		interval:  interval,
	}
}

// Start runs one recount immediately and then one per interval until ctx
// is cancelled.
func (w *RecountWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("recount worker started", slog.Duration("interval", w.interval))
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("recount worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single recount pass.
func (w *RecountWorker) RunOnce(ctx context.Context) {
	start := time.Now()
	changed, err := w.recounter.RecountAll(ctx)
	if err != nil {
		w.logger.Error("recount failed",
			slog.Int("changed", changed),
			slog.String("error", err.Error()),
		)
		return
	}
	if changed > 0 {
		w.logger.Info("organization counts updated",
			slog.Int("changed", changed),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
