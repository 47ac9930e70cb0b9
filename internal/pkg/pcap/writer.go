// Package pcap provides a capture output writing packets to a pcap file.
package pcap

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/callscope/callscope/internal/pkg/logger"
	"github.com/callscope/callscope/internal/pkg/types"
)

// Config holds pcap writer configuration.
type Config struct {
	FilePath string
	LinkType layers.LinkType
	Snaplen  uint32
}

// DefaultConfig returns the default writer configuration.
func DefaultConfig() Config {
	return Config{
		LinkType: layers.LinkTypeEthernet,
		Snaplen:  65536,
	}
}

// Writer is a capture output appending every packet to one pcap file.
// Writes run synchronously on the capture goroutine; Close flushes and
// releases the file.
type Writer struct {
	mu     sync.Mutex
	config Config
	file   *os.File
	writer *pcapgo.Writer
	count  int
	closed bool
}

// NewWriter creates the output file and writes the pcap header.
func NewWriter(config Config) (*Writer, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if config.LinkType == 0 {
		config.LinkType = DefaultConfig().LinkType
	}
	if config.Snaplen == 0 {
		config.Snaplen = DefaultConfig().Snaplen
	}

	file, err := os.Create(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap file: %w", err)
	}

	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(config.Snaplen, config.LinkType); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	logger.Info("created pcap writer",
		"file", config.FilePath,
		"link_type", config.LinkType,
		"snaplen", config.Snaplen)

	return &Writer{config: config, file: file, writer: writer}, nil
}

// Write appends one packet to the file.
func (w *Writer) Write(pkt *types.Packet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	if err := w.writer.WritePacket(pkt.CaptureInfo(), pkt.Data); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	w.count++
	return nil
}

// Close flushes buffered data to disk and closes the file. Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to sync pcap file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close pcap file: %w", err)
	}

	logger.Info("closed pcap writer",
		"file", w.config.FilePath,
		"packets", w.count)
	return nil
}

// Teardown releases the writer, closing the file first when Close was
// never called.
func (w *Writer) Teardown() error {
	return w.Close()
}

// PacketCount returns the number of packets written so far.
func (w *Writer) PacketCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// FilePath returns the output file path.
func (w *Writer) FilePath() string {
	return w.config.FilePath
}
