package capture

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSource struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (s *countingSource) Run(ctx context.Context) error {
	s.started.Store(true)
	<-ctx.Done()
	s.stopped.Store(true)
	return nil
}

func TestLoopAttachBeforeRun(t *testing.T) {
	loop := NewLoop()
	src := &countingSource{}
	loop.Attach("src", src)

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	assert.Eventually(t, func() bool { return src.started.Load() }, time.Second, 5*time.Millisecond)

	loop.Quit()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not terminate after quit")
	}
	assert.True(t, src.stopped.Load(), "run must not return before sources have exited")
}

func TestLoopAttachWhileRunning(t *testing.T) {
	loop := NewLoop()

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	src := &countingSource{}
	loop.Attach("late", src)

	assert.Eventually(t, func() bool { return src.started.Load() }, time.Second, 5*time.Millisecond)

	loop.Quit()
	<-done
	assert.True(t, src.stopped.Load())
}

func TestLoopQuitWithoutSources(t *testing.T) {
	loop := NewLoop()

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	loop.Quit()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("empty loop did not terminate")
	}
}
