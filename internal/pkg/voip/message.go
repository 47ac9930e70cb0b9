// Package voip models the entities the correlation layer builds from
// captured SIP traffic: calls, their messages, negotiated SDP media and the
// RTP streams attached to them.
package voip

import (
	"strings"
	"time"

	"github.com/callscope/callscope/internal/pkg/types"
)

// retransScanDepth bounds how many previous call messages are checked when
// looking for a retransmission.
const retransScanDepth = 20

// SDPFormat is one negotiated format entry from an SDP media description.
type SDPFormat struct {
	ID    uint8
	Alias string
}

// SDPMedia is one media description from an SDP exchange, with its
// negotiated format list in offer order.
type SDPMedia struct {
	Address types.Address
	Type    string
	Formats []SDPFormat
}

// Call groups the messages of one SIP dialog. It is created and owned by
// the correlation layer.
type Call struct {
	ID   string
	Msgs []*Message
}

// NewCall creates an empty call for the given Call-ID.
func NewCall(id string) *Call {
	return &Call{ID: id}
}

// AddMessage appends msg to the call and sets its back-reference.
func (c *Call) AddMessage(msg *Message) {
	msg.call = c
	c.Msgs = append(c.Msgs, msg)
}

// Message is one SIP message of a call. It keeps a shared reference to its
// packet; addresses and payload are extracted by the decoding layer.
type Message struct {
	packet  *types.Packet
	call    *Call
	src     types.Address
	dst     types.Address
	payload string
	medias  []*SDPMedia
}

// NewMessage builds a message around a captured packet.
func NewMessage(pkt *types.Packet, src, dst types.Address, payload string, medias []*SDPMedia) *Message {
	return &Message{
		packet:  pkt,
		src:     src,
		dst:     dst,
		payload: payload,
		medias:  medias,
	}
}

// Call returns the owning call, nil until the message is added to one.
func (m *Message) Call() *Call {
	return m.call
}

// Time returns the capture timestamp of the message's packet.
func (m *Message) Time() time.Time {
	if m == nil || m.packet == nil {
		return time.Time{}
	}
	return m.packet.Time()
}

// SrcAddress returns the message's source endpoint.
func (m *Message) SrcAddress() types.Address {
	return m.src
}

// DstAddress returns the message's destination endpoint.
func (m *Message) DstAddress() types.Address {
	return m.dst
}

// Payload returns the raw SIP payload.
func (m *Message) Payload() string {
	return m.payload
}

// MediaCount returns the number of SDP media descriptions carried.
func (m *Message) MediaCount() int {
	return len(m.medias)
}

// HasSDP reports whether the message carries at least one media description.
func (m *Message) HasSDP() bool {
	return m.MediaCount() > 0
}

// MediaForAddr finds the media description negotiated for dst. A media
// entry matches on its exact endpoint, or on port alone when dst is the
// message's own source address (symmetric RTP behind NAT).
func (m *Message) MediaForAddr(dst types.Address) *SDPMedia {
	for _, media := range m.medias {
		if media.Address.EqualsPort(dst) {
			return media
		}
		if dst.Equals(m.src) && dst.Port == media.Address.Port {
			return media
		}
	}
	return nil
}

// PreferredCodecAlias returns the alias of the first format of the first
// media description, or "" when the message negotiates none.
func (m *Message) PreferredCodecAlias() string {
	if len(m.medias) == 0 {
		return ""
	}
	media := m.medias[0]
	if len(media.Formats) == 0 {
		return ""
	}
	return media.Formats[0].Alias
}

// Retransmission scans the previous messages of the owning call for an
// earlier message with the same endpoints and payload. Returns nil when the
// message is not a retransmission or has no call yet.
func (m *Message) Retransmission() *Message {
	if m.call == nil {
		return nil
	}

	length := len(m.call.Msgs)
	for i := 0; i < retransScanDepth && i < length; i++ {
		prev := m.call.Msgs[length-1-i]
		if prev == m {
			continue
		}
		if prev.src.EqualsPort(m.src) && prev.dst.EqualsPort(m.dst) &&
			strings.EqualFold(prev.payload, m.payload) {
			return prev
		}
	}
	return nil
}
