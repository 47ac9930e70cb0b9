package signals

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupHandlerCancelsOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cleanup := SetupHandler(ctx, cancel)
	defer cleanup()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled on signal")
	}
}

func TestSetupHandlerCleanupAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cleanup := SetupHandler(ctx, cancel)

	cancel()
	cleanup()
}
