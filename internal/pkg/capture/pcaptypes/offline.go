package pcaptypes

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/google/gopacket/pcap"

	"github.com/callscope/callscope/internal/pkg/capture"
)

// OfflineInput replays packets from a capture file. While the file is still
// being read the input reports Done() == false, which the manager surfaces
// as the "Loading" status.
type OfflineInput struct {
	path   string
	file   *os.File
	handle *pcap.Handle
	sink   capture.PacketSink
	done   atomic.Bool
}

// NewOfflineInput opens a capture file for replay.
func NewOfflineInput(path string) (*OfflineInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	handle, err := pcap.OpenOfflineFile(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &OfflineInput{path: path, file: file, handle: handle}, nil
}

// Mode reports this input as a capture file source.
func (in *OfflineInput) Mode() capture.Mode {
	return capture.ModeOffline
}

// Bind sets the sink replayed packets are delivered to.
func (in *OfflineInput) Bind(sink capture.PacketSink) {
	in.sink = sink
}

// SetFilter applies a BPF expression to the replay handle.
func (in *OfflineInput) SetFilter(expr string) error {
	return in.handle.SetBPFFilter(expr)
}

// Run replays the file into the sink until exhausted or ctx is cancelled.
func (in *OfflineInput) Run(ctx context.Context) error {
	defer in.done.Store(true)
	return readPackets(ctx, in.handle, in.sink)
}

// Done reports whether the file has been fully replayed.
func (in *OfflineInput) Done() bool {
	return in.done.Load()
}

// Close releases the replay handle and the underlying file.
func (in *OfflineInput) Close() error {
	in.handle.Close()
	return in.file.Close()
}

// Path returns the capture file path.
func (in *OfflineInput) Path() string {
	return in.path
}
