package collector

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/zoobzio/clockz"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/spanz/internal/logging"
)

// ReportAll reports every flusher concurrently and returns all failures.
func ReportAll(ctx context.Context, flushers ...Flusher) error {
	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range flushers {
		g.Go(func() error {
			if err := f.Report(gctx); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
			// Failures are collected, not propagated, so one slow collector
			// does not cancel the others.
			return nil
		})
	}
	_ = g.Wait()
	return result.ErrorOrNil()
}

// AutoFlush reports the flushers every interval until ctx is done, then
// makes one final attempt with a fresh context. Failures are logged and
// retried on the next tick.
func AutoFlush(ctx context.Context, interval time.Duration, clock clockz.Clock, logger logging.Logger, flushers ...Flusher) {
	if clock == nil {
		clock = clockz.RealClock
	}
	if logger == nil {
		logger = logging.NewDefault()
	}

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), interval)
			if err := ReportAll(final, flushers...); err != nil {
				logger.Warningf("final span report failed: %v", err)
			}
			cancel()
			return
		case <-clock.After(interval):
			if err := ReportAll(ctx, flushers...); err != nil {
				logger.Warningf("span report failed: %v", err)
			}
		}
	}
}
