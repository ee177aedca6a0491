package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/quarry/internal/logger"
)

// startScheduler runs the scheduler in the background when it is enabled.
// The returned function stops it.
func startScheduler(ctx context.Context) func() {
	if scheduler == nil || !schedulerConfig.Enabled {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			// scheduler errors shouldn't block the foreground command
			logger.Warn("scheduler stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop error: %v", err)
		}
		<-done
	}
}

// startPromptWatch reloads prompt files in the background until ctx is done.
func startPromptWatch(ctx context.Context) {
	if watchPrompts == nil {
		return
	}
	go func() {
		err := watchPrompts(ctx, func(name string) {
			logger.Info("reloaded prompt %s", name)
		})
		if err != nil {
			logger.Warn("prompt watch disabled: %v", err)
		}
	}()
}
