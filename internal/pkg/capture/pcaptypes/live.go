// Package pcaptypes implements the capture input variants: live network
// devices, offline capture files and a passive datagram listener.
package pcaptypes

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/spf13/viper"

	"github.com/callscope/callscope/internal/pkg/capture"
	"github.com/callscope/callscope/internal/pkg/types"
)

// MaxSnapshotLen captures full frames on standard MTU plus encapsulation.
const MaxSnapshotLen = 65535

// DefaultBufferSize is the default kernel buffer size for live capture.
// The libpcap default (~2MB) drops packets on busy interfaces.
const DefaultBufferSize = 16 * 1024 * 1024

// DefaultReadTimeout bounds each blocking read so a cancelled context is
// noticed promptly without burning CPU between packets.
const DefaultReadTimeout = 200 * time.Millisecond

// LiveInput captures packets from one network device.
type LiveInput struct {
	device string
	handle *pcap.Handle
	sink   capture.PacketSink
	done   atomic.Bool
}

// NewLiveInput opens device for live capture. Promiscuous mode, read
// timeout and kernel buffer size come from configuration:
// promiscuous, pcap_timeout_ms and pcap_buffer_size.
func NewLiveInput(device string) (*LiveInput, error) {
	timeout := DefaultReadTimeout
	if ms := viper.GetInt("pcap_timeout_ms"); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	bufferSize := viper.GetInt("pcap_buffer_size")
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	inactive, err := pcap.NewInactiveHandle(device)
	if err != nil {
		return nil, err
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(MaxSnapshotLen); err != nil {
		return nil, err
	}
	if err := inactive.SetPromisc(viper.GetBool("promiscuous")); err != nil {
		return nil, err
	}
	if err := inactive.SetTimeout(timeout); err != nil {
		return nil, err
	}
	if err := inactive.SetBufferSize(bufferSize); err != nil {
		return nil, err
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, err
	}

	return &LiveInput{device: device, handle: handle}, nil
}

// Mode reports this input as a live device source.
func (in *LiveInput) Mode() capture.Mode {
	return capture.ModeOnline
}

// Bind sets the sink captured packets are delivered to.
func (in *LiveInput) Bind(sink capture.PacketSink) {
	in.sink = sink
}

// SetFilter applies a BPF expression to the live handle. Safe while Run is
// active; libpcap swaps the compiled program atomically.
func (in *LiveInput) SetFilter(expr string) error {
	return in.handle.SetBPFFilter(expr)
}

// Run reads packets from the device until ctx is cancelled. The handle's
// read timeout keeps cancellation latency bounded.
func (in *LiveInput) Run(ctx context.Context) error {
	defer in.done.Store(true)
	return readPackets(ctx, in.handle, in.sink)
}

// Done reports whether the event source has finished. Live devices never
// finish on their own; Done turns true only after cancellation.
func (in *LiveInput) Done() bool {
	return in.done.Load()
}

// Close releases the pcap handle.
func (in *LiveInput) Close() error {
	in.handle.Close()
	return nil
}

// Device returns the captured device name.
func (in *LiveInput) Device() string {
	return in.device
}

// readPackets pumps packets from a pcap handle into sink until ctx is
// cancelled or the handle is exhausted. Shared by live and offline inputs.
func readPackets(ctx context.Context, handle *pcap.Handle, sink capture.PacketSink) error {
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	source.Lazy = true
	source.NoCopy = true

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pkt, err := source.NextPacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			return err
		}

		if sink != nil {
			sink.OutputPacket(types.NewPacket(pkt.Metadata().CaptureInfo, handle.LinkType(), pkt.Data()))
		}
	}
}
