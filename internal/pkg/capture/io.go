// Package capture multiplexes heterogeneous packet inputs onto one loop
// goroutine and fans captured packets out to every registered output.
package capture

import (
	"context"

	"github.com/callscope/callscope/internal/pkg/types"
)

// Mode identifies how an input acquires packets.
type Mode int

const (
	// ModeOnline reads packets from a live network device.
	ModeOnline Mode = iota
	// ModeOffline replays packets from a capture file.
	ModeOffline
	// ModeListen receives packets pushed by a remote agent. Listener
	// inputs count as online for status purposes.
	ModeListen
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeOffline:
		return "offline"
	case ModeListen:
		return "listen"
	default:
		return "unknown"
	}
}

// PacketSink receives packets produced by an Input. The Manager is the only
// sink inputs are ever bound to.
type PacketSink interface {
	OutputPacket(pkt *types.Packet)
}

// Input is a source of captured packets. Implementations must deliver every
// packet to the sink they were bound to, from inside Run.
type Input interface {
	// Mode reports how this input acquires packets.
	Mode() Mode

	// Bind sets the sink packets are delivered to. Called once by
	// Manager.AddInput before the input's event source is attached.
	Bind(sink PacketSink)

	// Run is the input's event source. It blocks producing packets until
	// the source is exhausted or ctx is cancelled, and runs on the
	// manager's capture goroutine pool.
	Run(ctx context.Context) error

	// SetFilter applies a packet filter expression. Inputs without filter
	// support return nil. Must be safe to call while Run is active.
	SetFilter(expr string) error

	// Done reports whether the event source has completed. Offline inputs
	// report true once their file is fully replayed.
	Done() bool

	// Close releases the input's resources. Called by Manager.Close.
	Close() error
}

// Output is a sink receiving every captured packet.
type Output interface {
	// Write delivers one packet. Runs synchronously on the capture
	// goroutine; a slow output degrades live throughput.
	Write(pkt *types.Packet) error

	// Close drains and flushes buffered data. Called by Manager.Stop.
	Close() error

	// Teardown releases the output's resources. Called by Manager.Close
	// after Close, and must tolerate being called without it.
	Teardown() error
}
