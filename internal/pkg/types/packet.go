// Package types holds the packet and address model shared between capture
// inputs, outputs and the stream tracking layer.
package types

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Packet is one captured packet as it travels input -> manager -> outputs.
// It is shared by pointer between every consumer; none of them may mutate
// Data after construction.
type Packet struct {
	Timestamp time.Time
	LinkType  layers.LinkType
	Length    int
	Data      []byte

	parseOnce sync.Once
	parsed    gopacket.Packet
}

// NewPacket builds a Packet from a capture header and raw bytes.
func NewPacket(ci gopacket.CaptureInfo, linkType layers.LinkType, data []byte) *Packet {
	length := ci.Length
	if length == 0 {
		length = len(data)
	}
	return &Packet{
		Timestamp: ci.Timestamp,
		LinkType:  linkType,
		Length:    length,
		Data:      data,
	}
}

// Time returns the packet's capture timestamp.
func (p *Packet) Time() time.Time {
	return p.Timestamp
}

// CaptureInfo rebuilds the gopacket capture header for this packet.
func (p *Packet) CaptureInfo() gopacket.CaptureInfo {
	return gopacket.CaptureInfo{
		Timestamp:     p.Timestamp,
		CaptureLength: len(p.Data),
		Length:        p.Length,
	}
}

// Parsed returns the decoded layer view of the packet. Decoding is lazy and
// happens at most once; outputs that only copy raw bytes never pay for it.
func (p *Packet) Parsed() gopacket.Packet {
	p.parseOnce.Do(func() {
		p.parsed = gopacket.NewPacket(p.Data, p.LinkType, gopacket.Lazy)
	})
	return p.parsed
}

// SrcAddress returns the packet's network-layer source endpoint, including
// the transport port when one is present.
func (p *Packet) SrcAddress() Address {
	return p.endpoint(false)
}

// DstAddress returns the packet's network-layer destination endpoint.
func (p *Packet) DstAddress() Address {
	return p.endpoint(true)
}

func (p *Packet) endpoint(dst bool) Address {
	parsed := p.Parsed()
	if parsed == nil {
		return Address{}
	}

	var addr Address
	if network := parsed.NetworkLayer(); network != nil {
		flow := network.NetworkFlow()
		if dst {
			addr.IP = flow.Dst().String()
		} else {
			addr.IP = flow.Src().String()
		}
	}
	if transport := parsed.TransportLayer(); transport != nil {
		flow := transport.TransportFlow()
		var raw string
		if dst {
			raw = flow.Dst().String()
		} else {
			raw = flow.Src().String()
		}
		if port, err := strconv.ParseUint(raw, 10, 16); err == nil {
			addr.Port = uint16(port)
		}
	}
	return addr
}
