package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callscope/callscope/internal/pkg/types"
)

type recordingCorrelator struct {
	packets []*types.Packet
	addErr  error
	flushed bool
	closed  bool
}

func (c *recordingCorrelator) Add(pkt *types.Packet) error {
	if c.addErr != nil {
		return c.addErr
	}
	c.packets = append(c.packets, pkt)
	return nil
}

func (c *recordingCorrelator) Flush() error {
	c.flushed = true
	return nil
}

func (c *recordingCorrelator) Close() error {
	c.closed = true
	return nil
}

// bareCorrelator implements only Add.
type bareCorrelator struct{}

func (bareCorrelator) Add(*types.Packet) error { return nil }

func newTestPacket() *types.Packet {
	data := []byte{0x80, 0x00, 0x00, 0x01}
	return types.NewPacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, 1, data)
}

func TestOutputForwardsPackets(t *testing.T) {
	correlator := &recordingCorrelator{}
	out := NewOutput(correlator)

	pkt := newTestPacket()
	require.NoError(t, out.Write(pkt))
	require.Len(t, correlator.packets, 1)
	assert.Same(t, pkt, correlator.packets[0])
}

func TestOutputPropagatesAddError(t *testing.T) {
	correlator := &recordingCorrelator{addErr: errors.New("storage limit reached")}
	out := NewOutput(correlator)

	err := out.Write(newTestPacket())
	assert.ErrorContains(t, err, "storage limit")
}

func TestOutputCloseFlushesAndTeardownCloses(t *testing.T) {
	correlator := &recordingCorrelator{}
	out := NewOutput(correlator)

	require.NoError(t, out.Close())
	assert.True(t, correlator.flushed)
	assert.False(t, correlator.closed)

	require.NoError(t, out.Teardown())
	assert.True(t, correlator.closed)
}

func TestOutputWithMinimalCorrelator(t *testing.T) {
	out := NewOutput(bareCorrelator{})

	require.NoError(t, out.Write(newTestPacket()))
	require.NoError(t, out.Close())
	require.NoError(t, out.Teardown())
}
