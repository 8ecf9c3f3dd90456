// Package retention runs the scheduled cache sweep that deletes expired
// response-cache entries.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"worldmonitor/pkg/config"
	"worldmonitor/pkg/logger"
	"worldmonitor/pkg/store"
)

const defaultCron = "0 */6 * * *"

// Start launches the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("cache_sweep_disabled")
		return func() {}, nil
	}

	expr := cfg.Cron
	if expr == "" {
		expr = defaultCron
	}
	if !gronx.IsValid(expr) {
		logger.Error("cache_sweep_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	cctx, cancel := context.WithCancel(ctx)
	go runScheduler(cctx, expr, cfg)
	logger.Info("cache_sweep_scheduled", "cron", expr)
	return cancel, nil
}

// runScheduler computes the next tick for the configured cron expression
// and sleeps until that time.
func runScheduler(ctx context.Context, expr string, cfg config.RetentionConfig) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("cache_sweep_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(expr, now, false)
		if err != nil {
			logger.Error("cache_sweep_nexttick_failed", "cron", expr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			RunOnce(cfg)
		case <-ctx.Done():
			logger.Info("cache_sweep_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep; exposed for tests and admin triggers.
func RunOnce(cfg config.RetentionConfig) {
	if !store.Ready() {
		return
	}
	sleep := time.Duration(cfg.BatchSleepMs) * time.Millisecond
	n, err := store.SweepExpired(cfg.BatchSize, sleep)
	if err != nil {
		logger.Error("cache_sweep_failed", "error", err)
		return
	}
	logger.Info("cache_sweep_done", "deleted", n)
}
