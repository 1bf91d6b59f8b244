package qrcode

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper runs SweepExpired on an "@every" cron schedule until stopped. A
// sweep that is still running when the next tick fires makes that tick a no-op.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger
	cron     *cron.Cron
	cancel   context.CancelFunc
}

func NewSweeper(svc *Service, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		log:      log,
	}
}

// Schedule is the cron spec derived from the interval.
func (w *Sweeper) Schedule() string {
	return "@every " + w.interval.String()
}

// Start runs one sweep right away, then hands the rest to the cron scheduler.
func (w *Sweeper) Start(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)

	cronLog := cron.PrintfLogger(&w.log)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLog)), cron.WithLogger(cronLog))
	if _, err := c.AddFunc(w.Schedule(), func() { w.RunOnce(cctx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule token sweep: %w", err)
	}

	w.RunOnce(cctx)

	w.cancel = cancel
	w.cron = c
	c.Start()
	w.log.Info().Str("schedule", w.Schedule()).Msg("check-in token sweeper started")
	return nil
}

// RunOnce performs a single sweep and logs the outcome.
func (w *Sweeper) RunOnce(ctx context.Context) int64 {
	n, err := w.svc.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("token sweep failed")
		}
		return 0
	}
	if n > 0 {
		w.log.Info().Int64("deactivated", n).Msg("expired check-in tokens deactivated")
	}
	return n
}

// Stop cancels the in-flight sweep, if any, and waits for it to return.
func (w *Sweeper) Stop() {
	if w.cron == nil {
		return
	}
	w.cancel()
	<-w.cron.Stop().Done()
	w.cron = nil
	w.log.Info().Msg("check-in token sweeper stopped")
}
