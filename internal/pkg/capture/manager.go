package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/callscope/callscope/internal/pkg/logger"
	"github.com/callscope/callscope/internal/pkg/types"
)

// State is the manager lifecycle phase.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

var (
	// ErrAlreadyStarted is returned by Start when the manager already ran.
	ErrAlreadyStarted = errors.New("capture manager already started")
	// ErrNotRunning is returned by Stop when the manager is not running.
	ErrNotRunning = errors.New("capture manager not running")
	// ErrStillRunning is returned by Close while the loop is running.
	ErrStillRunning = errors.New("capture manager must be stopped before close")
)

// diagnosticsBuffer bounds the diagnostics channel; fan-out never blocks on
// a slow diagnostics consumer.
const diagnosticsBuffer = 64

// Diagnostic records the outcome of one best-effort operation against an
// output. Fan-out never aborts on output failure; failures are reported
// here instead.
type Diagnostic struct {
	OutputID string
	Op       string
	Err      error
	Time     time.Time
}

// Config carries the settings consumed at manager construction.
type Config struct {
	// TLSServer is the "host:port" of the server whose TLS traffic should
	// be decrypted, parsed once at construction.
	TLSServer string
	// Keyfile is the path to the TLS decryption key file. Not validated
	// here; TLS-capable inputs validate it when they open it.
	Keyfile string
}

// ConfigFromViper reads manager settings from the loaded configuration.
func ConfigFromViper() Config {
	return Config{
		TLSServer: viper.GetString("capture.tlsserver"),
		Keyfile:   viper.GetString("capture.keyfile"),
	}
}

// Manager owns the registered inputs and outputs, the capture loop and the
// goroutine running it. One Manager per process is the intended usage;
// construct it explicitly and hand it to whatever needs it.
//
// Control-plane calls (AddInput, AddOutput, SetFilter, Stop, Close) may be
// issued from any goroutine; the manager serializes them internally against
// packet fan-out.
type Manager struct {
	mu        sync.RWMutex
	state     State
	inputs    []registeredInput
	outputs   []registeredOutput
	filter    string
	keyfile   string
	tlsServer types.Address
	paused    atomic.Bool

	loop     *Loop
	loopDone chan struct{}

	diags chan Diagnostic
}

type registeredInput struct {
	id string
	in Input
}

type registeredOutput struct {
	id  string
	out Output
}

// NewManager creates a manager in the Created state with an idle loop.
func NewManager(cfg Config) *Manager {
	return &Manager{
		state:     StateCreated,
		tlsServer: types.ParseAddress(cfg.TLSServer),
		keyfile:   cfg.Keyfile,
		loop:      NewLoop(),
		loopDone:  make(chan struct{}),
		diags:     make(chan Diagnostic, diagnosticsBuffer),
	}
}

// Start spawns the dedicated capture goroutine running the loop and returns
// immediately.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateCreated {
		return ErrAlreadyStarted
	}
	m.state = StateRunning

	go func() {
		m.loop.Run()
		close(m.loopDone)
	}()

	logger.Info("capture manager started", "sources", len(m.inputs))
	return nil
}

// Stop closes every output in registration order, requests loop termination
// and blocks until the capture goroutine has exited. Once Stop returns no
// further packet is delivered to any output.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.state = StateStopped
	outputs := m.outputs
	m.mu.Unlock()

	for _, ro := range outputs {
		if err := ro.out.Close(); err != nil {
			m.report(Diagnostic{OutputID: ro.id, Op: "close", Err: err, Time: time.Now()})
		}
	}

	m.loop.Quit()
	<-m.loopDone

	logger.Info("capture manager stopped")
	return nil
}

// Close tears down every input, then every output, and releases the
// manager's collections. Producers stop before sinks are released. Close is
// invalid while the loop is running.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRunning {
		return ErrStillRunning
	}

	for _, ri := range m.inputs {
		if err := ri.in.Close(); err != nil {
			logger.Warn("input teardown failed", "input", ri.id, "error", err)
		}
	}
	for _, ro := range m.outputs {
		if err := ro.out.Teardown(); err != nil {
			m.report(Diagnostic{OutputID: ro.id, Op: "teardown", Err: err, Time: time.Now()})
		}
	}

	m.inputs = nil
	m.outputs = nil
	m.filter = ""
	close(m.diags)
	m.diags = nil
	return nil
}

// AddInput binds input to this manager, attaches its event source to the
// capture loop and appends it to the input collection. Safe before or after
// Start.
func (m *Manager) AddInput(in Input) {
	id := uuid.NewString()
	in.Bind(m)

	m.mu.Lock()
	m.inputs = append(m.inputs, registeredInput{id: id, in: in})
	m.mu.Unlock()

	m.loop.Attach(id, in)
	logger.Debug("capture input registered", "input", id, "mode", in.Mode().String())
}

// AddOutput binds output to this manager and appends it to the output
// collection. Outputs are push targets only; they are not attached to the
// loop.
func (m *Manager) AddOutput(out Output) {
	id := uuid.NewString()

	m.mu.Lock()
	m.outputs = append(m.outputs, registeredOutput{id: id, out: out})
	m.mu.Unlock()

	logger.Debug("capture output registered", "output", id)
}

// OutputPacket delivers pkt to every output in registration order,
// synchronously on the calling goroutine. A failing output never aborts
// delivery to the remaining ones; failures surface on Diagnostics.
func (m *Manager) OutputPacket(pkt *types.Packet) {
	m.mu.RLock()
	outputs := m.outputs
	m.mu.RUnlock()

	for _, ro := range outputs {
		if err := ro.out.Write(pkt); err != nil {
			m.report(Diagnostic{OutputID: ro.id, Op: "write", Err: err, Time: time.Now()})
		}
	}
}

// SetFilter applies expr to every input in registration order, stopping at
// the first failure. On failure the stored filter is cleared to none;
// inputs that already accepted expr are not rolled back. On full success
// the filter is committed and retrievable through Filter.
func (m *Manager) SetFilter(expr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ri := range m.inputs {
		if err := ri.in.SetFilter(expr); err != nil {
			m.filter = ""
			return fmt.Errorf("applying filter %q: %w", expr, err)
		}
	}

	m.filter = expr
	return nil
}

// Filter returns the committed filter expression, or "" when none is set.
func (m *Manager) Filter() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetKeyfile records a TLS decryption key file path. No validation happens
// here; TLS-capable inputs validate the file when they use it.
func (m *Manager) SetKeyfile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyfile = path
}

// Keyfile returns the recorded TLS decryption key file path.
func (m *Manager) Keyfile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keyfile
}

// TLSServer returns the endpoint whose TLS traffic should be decrypted.
func (m *Manager) TLSServer() types.Address {
	return m.tlsServer
}

// SourcesCount returns the number of registered inputs.
func (m *Manager) SourcesCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.inputs)
}

// IsOnline reports whether every registered input captures live traffic.
func (m *Manager) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ri := range m.inputs {
		if ri.in.Mode() == ModeOffline {
			return false
		}
	}
	return true
}

// SetPause records the pause flag. The flag is advisory: it changes the
// status description but does not gate packet intake or delivery.
func (m *Manager) SetPause(paused bool) {
	m.paused.Store(paused)
}

// Paused returns the advisory pause flag.
func (m *Manager) Paused() bool {
	return m.paused.Load()
}

// StatusDescription classifies the capture state from the input tally.
// " (Paused)" takes precedence over " (Loading)".
func (m *Manager) StatusDescription() string {
	m.mu.RLock()
	online, offline, loading := 0, 0, 0
	for _, ri := range m.inputs {
		if ri.in.Mode() == ModeOffline {
			offline++
			if !ri.in.Done() {
				loading++
			}
		} else {
			online++
		}
	}
	m.mu.RUnlock()

	var category string
	switch {
	case offline == 0:
		category = "Online"
	case online == 0:
		category = "Offline"
	default:
		category = "Mixed"
	}

	if m.paused.Load() {
		return category + " (Paused)"
	}
	if loading > 0 {
		return category + " (Loading)"
	}
	return category
}

// Diagnostics exposes per-output failures from best-effort fan-out
// operations. The channel is buffered; entries are dropped when no consumer
// keeps up.
func (m *Manager) Diagnostics() <-chan Diagnostic {
	return m.diags
}

func (m *Manager) report(d Diagnostic) {
	if m.diags == nil {
		return
	}
	select {
	case m.diags <- d:
	default:
		logger.Debug("diagnostics channel full, dropping entry",
			"output", d.OutputID,
			"op", d.Op,
			"error", d.Err)
	}
}
