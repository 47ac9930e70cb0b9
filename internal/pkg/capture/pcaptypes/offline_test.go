package pcaptypes

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callscope/callscope/internal/pkg/capture"
)

// writeTestPcap creates a capture file with n UDP packets.
func writeTestPcap(t *testing.T, path string, n int) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := pcapgo.NewWriter(file)
	require.NoError(t, writer.WriteFileHeader(65536, layers.LinkTypeEthernet))

	for i := 0; i < n; i++ {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			IHL:      5,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
		}
		udp := &layers.UDP{SrcPort: 5060, DstPort: 5060}
		require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp,
			gopacket.Payload([]byte("test payload"))))

		data := buf.Bytes()
		require.NoError(t, writer.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Date(2024, 6, 1, 0, 0, i, 0, time.UTC),
			CaptureLength: len(data),
			Length:        len(data),
		}, data))
	}
}

func TestOfflineInputReplaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	writeTestPcap(t, path, 4)

	input, err := NewOfflineInput(path)
	require.NoError(t, err)

	assert.Equal(t, capture.ModeOffline, input.Mode())
	assert.Equal(t, path, input.Path())
	assert.False(t, input.Done())

	sink := &collectingSink{}
	input.Bind(sink)

	require.NoError(t, input.Run(context.Background()))

	assert.True(t, input.Done(), "offline input reports completion after replay")
	assert.Equal(t, 4, sink.count())
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), sink.first().Time())

	assert.NoError(t, input.Close())
}

func TestOfflineInputFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	writeTestPcap(t, path, 2)

	input, err := NewOfflineInput(path)
	require.NoError(t, err)
	defer input.Close()

	require.NoError(t, input.SetFilter("udp port 5060"))
	assert.Error(t, input.SetFilter("not a valid filter ("))
}

func TestOfflineInputMissingFile(t *testing.T) {
	_, err := NewOfflineInput("/nonexistent/capture.pcap")
	assert.Error(t, err)
}
