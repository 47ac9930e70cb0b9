package capture

import (
	"context"
	"sync"

	"github.com/callscope/callscope/internal/pkg/logger"
)

// EventSource is one readiness source multiplexed by a Loop.
type EventSource interface {
	Run(ctx context.Context) error
}

// Loop drives every attached event source until Quit is called. Sources can
// be attached before or after the loop starts running; a source attached to
// a running loop starts immediately.
type Loop struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	pending []namedSource
	wg      sync.WaitGroup
}

type namedSource struct {
	name string
	src  EventSource
}

// NewLoop creates a loop that is not yet running.
func NewLoop() *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Attach registers src with the loop. Safe to call concurrently with Run.
func (l *Loop) Attach(name string, src EventSource) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		l.start(namedSource{name: name, src: src})
		return
	}
	l.pending = append(l.pending, namedSource{name: name, src: src})
}

// Run starts every attached source and blocks until Quit is called and all
// source goroutines have returned.
func (l *Loop) Run() {
	l.mu.Lock()
	l.running = true
	pending := l.pending
	l.pending = nil
	for _, ns := range pending {
		l.start(ns)
	}
	l.mu.Unlock()

	<-l.ctx.Done()
	l.wg.Wait()
}

// start launches one source goroutine. Caller holds l.mu.
func (l *Loop) start(ns namedSource) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := ns.src.Run(l.ctx); err != nil && l.ctx.Err() == nil {
			logger.Error("capture source terminated",
				"source", ns.name,
				"error", err)
		}
	}()
}

// Quit requests loop termination. Run returns once every source goroutine
// has observed the cancellation and exited.
func (l *Loop) Quit() {
	l.cancel()
}

// Context returns the loop's lifetime context.
func (l *Loop) Context() context.Context {
	return l.ctx
}
