package types

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildUDPPacket serializes an Ethernet/IPv4/UDP frame for tests.
func buildUDPPacket(t *testing.T, srcIP string, srcPort uint16, dstIP string, dstPort uint16) []byte {
	t.Helper()

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
		SrcIP:    net.ParseIP(srcIP),
		DstIP:    net.ParseIP(dstIP),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp,
		gopacket.Payload([]byte{0x80, 0x00, 0x00, 0x01})))
	return buf.Bytes()
}

func TestNewPacket(t *testing.T) {
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	data := buildUDPPacket(t, "10.0.0.1", 8000, "10.0.0.2", 9000)

	pkt := NewPacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}, layers.LinkTypeEthernet, data)

	assert.Equal(t, ts, pkt.Time())
	ci := pkt.CaptureInfo()
	assert.Equal(t, len(data), ci.CaptureLength)
	assert.Equal(t, len(data), ci.Length)
}

func TestNewPacketZeroLength(t *testing.T) {
	data := []byte{0x01, 0x02}
	pkt := NewPacket(gopacket.CaptureInfo{Timestamp: time.Now()}, layers.LinkTypeEthernet, data)
	assert.Equal(t, len(data), pkt.Length)
}

func TestPacketEndpoints(t *testing.T) {
	data := buildUDPPacket(t, "10.0.0.1", 8000, "10.0.0.2", 9000)
	pkt := NewPacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, layers.LinkTypeEthernet, data)

	assert.Equal(t, Address{IP: "10.0.0.1", Port: 8000}, pkt.SrcAddress())
	assert.Equal(t, Address{IP: "10.0.0.2", Port: 9000}, pkt.DstAddress())
}

func TestPacketParsedIsCached(t *testing.T) {
	data := buildUDPPacket(t, "10.0.0.1", 8000, "10.0.0.2", 9000)
	pkt := NewPacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, layers.LinkTypeEthernet, data)

	first := pkt.Parsed()
	second := pkt.Parsed()
	require.NotNil(t, first)
	assert.Same(t, first, second)
}
