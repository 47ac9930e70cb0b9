// Package signals wires OS termination signals into context cancellation.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/callscope/callscope/internal/pkg/logger"
)

// SetupHandler cancels ctx's cancel func on SIGINT, SIGTERM or SIGHUP.
// The returned cleanup detaches the handler.
func SetupHandler(ctx context.Context, cancel context.CancelFunc) (cleanup func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		select {
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			logger.Info("received signal, initiating shutdown", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(sigCh)
	}
}
