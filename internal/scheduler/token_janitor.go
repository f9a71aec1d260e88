// Package scheduler runs the background maintenance loops.
package scheduler

import (
	"context"
	"time"

	"reddot/internal/logger"
	"reddot/internal/store"
)

// DefaultRetention is how long a token outlives the end of its validity
// window before the janitor evicts it. While retained, a consume
// attempt still reports "expired" rather than "not found".
const DefaultRetention = 30 * 24 * time.Hour

// TokenJanitor periodically prunes long-dead security tokens from
// stores without native expiry.
type TokenJanitor struct {
	pruner    store.TokenPruner
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

func NewTokenJanitor(pruner store.TokenPruner, log logger.Logger, interval, retention time.Duration) *TokenJanitor {
	if retention == 0 {
		retention = DefaultRetention
	}
	return &TokenJanitor{
		pruner:    pruner,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic prune loop. The first prune runs
// immediately.
func (j *TokenJanitor) Start(ctx context.Context) error {
	if err := j.prune(ctx); err != nil {
		j.logger.Warn("initial token prune failed", logger.Error(err))
	}

	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.prune(ctx); err != nil {
					j.logger.Error("token prune failed", logger.Error(err))
				}
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the janitor.
func (j *TokenJanitor) Stop() {
	close(j.stopCh)
}

func (j *TokenJanitor) prune(ctx context.Context) error {
	deadline := time.Now().Add(-j.retention)
	n, err := j.pruner.PruneTokens(ctx, deadline)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("pruned dead security tokens", logger.Int("count", n))
	} else {
		j.logger.Debug("no tokens to prune")
	}
	return nil
}
