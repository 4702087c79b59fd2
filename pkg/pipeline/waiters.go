package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ReadyCheck probes one external dependency.
type ReadyCheck func(ctx context.Context) error

// WaitReady polls every named dependency in parallel until all report ready
// or the timeout elapses. The returned error names the first dependency
// that never came up.
func WaitReady(
	ctx context.Context,
	log logrus.FieldLogger,
	timeout, interval time.Duration,
	checks map[string]ReadyCheck,
) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(waitCtx)

	for name, check := range checks {
		g.Go(func() error {
			entry := log.WithField("dependency", name)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			var lastErr error

			for {
				if err := check(gctx); err == nil {
					entry.Info("Dependency ready")

					return nil
				} else {
					lastErr = err
					entry.WithError(err).Debug("Dependency not ready yet")
				}

				select {
				case <-gctx.Done():
					return fmt.Errorf("waiting for %s: %w (last error: %v)", name, gctx.Err(), lastErr)
				case <-ticker.C:
				}
			}
		})
	}

	return g.Wait()
}
