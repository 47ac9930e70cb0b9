// Package storage adapts a call-correlation engine to the capture output
// contract. The engine itself is an external collaborator; this output only
// forwards packets into it.
package storage

import (
	"github.com/callscope/callscope/internal/pkg/types"
)

// Correlator groups packets into calls and media streams. Implementations
// commonly parse SIP/SDP, maintain the call table and create voip.Streams
// for negotiated media legs.
type Correlator interface {
	Add(pkt *types.Packet) error
}

// Flusher is implemented by correlators that buffer work and want a drain
// step when capture stops.
type Flusher interface {
	Flush() error
}

// Closer is implemented by correlators holding resources to release at
// teardown.
type Closer interface {
	Close() error
}

// Output feeds every captured packet to a correlation engine.
type Output struct {
	correlator Correlator
}

// NewOutput wraps a correlation engine as a capture output.
func NewOutput(correlator Correlator) *Output {
	return &Output{correlator: correlator}
}

// Write hands one packet to the correlation engine.
func (o *Output) Write(pkt *types.Packet) error {
	return o.correlator.Add(pkt)
}

// Close drains the engine when it supports flushing.
func (o *Output) Close() error {
	if f, ok := o.correlator.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Teardown releases the engine when it holds resources.
func (o *Output) Teardown() error {
	if c, ok := o.correlator.(Closer); ok {
		return c.Close()
	}
	return nil
}
