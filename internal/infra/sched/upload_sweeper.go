package sched

import (
	"context"
	"time"

	"dubbing-orchestrator/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Sweeper deletes staged uploads older than a cutoff.
type Sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// UploadSweeper periodically removes staged uploads that no pipeline
// fetched, e.g. after a crash between staging and ingest.
type UploadSweeper struct {
	interval time.Duration
	maxAge   time.Duration
	store    Sweeper
	now      func() time.Time
	log      *zerolog.Logger
}

func NewUploadSweeper(interval, maxAge time.Duration, store Sweeper, logger *zerolog.Logger) *UploadSweeper {
	compLog := logger.With().Str("component", "UploadSweeper").Logger()
	return &UploadSweeper{
		interval: interval,
		maxAge:   maxAge,
		store:    store,
		now:      time.Now,
		log:      &compLog,
	}
}

// Run sweeps once on startup and then on every tick until ctx is done.
func (w *UploadSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("Starting upload sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping upload sweeper")
			return nil
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *UploadSweeper) sweepOnce(ctx context.Context) int {
	n, err := w.store.Sweep(ctx, w.now().Add(-w.maxAge))
	if err != nil && ctx.Err() == nil {
		w.log.Error().Err(err).Msg("upload sweep error")
	}
	if n > 0 {
		metrics.AddUploadsSwept(n)
		w.log.Info().Int("count", n).Msg("stale staged uploads removed")
	}
	return n
}
