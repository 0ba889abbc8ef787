package session

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"crosshttp/pkg/logger"
)

// StartGC starts a background sweeper that removes expired sessions on
// the given cron schedule. An empty expression defaults to hourly.
// Returns a cancel func that stops the scheduler.
func StartGC(ctx context.Context, store *Store, cronExpr string) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid session gc cron expression: %s", cronExpr)
	}
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, store, cronExpr)
	logger.Info("session_gc_started", "cron", cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression and sleeps
// until then, sweeping on each tick until cancellation.
func runScheduler(ctx context.Context, store *Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("session_gc_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("session_gc_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if _, err := store.SweepExpired(); err != nil {
				logger.Error("session_gc_sweep_failed", "error", err)
			}
		case <-ctx.Done():
			logger.Info("session_gc_stopping")
			return
		}
	}
}
