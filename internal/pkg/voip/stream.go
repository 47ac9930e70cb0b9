package voip

import (
	"time"

	"github.com/callscope/callscope/internal/pkg/types"
)

// StreamType is the role of a media leg within a call.
type StreamType int

const (
	// StreamRTP carries media.
	StreamRTP StreamType = iota
	// StreamRTCP carries the control channel of an RTP leg.
	StreamRTCP
)

// StreamInactiveThreshold is how long a stream may go without packets
// before IsActive turns false.
const StreamInactiveThreshold = 3 * time.Second

// streamNow is stubbed in tests to simulate the passage of time.
var streamNow = time.Now

// Stream tracks one direction of one media leg of a call: endpoints,
// negotiated format, packet count and liveness. Created and owned by the
// correlation layer; the message and media references are non-owning and
// the stream must not outlive them.
//
// A Stream carries no locking. It is written by whichever goroutine routes
// correlated RTP traffic and read by the UI; the owning layer serializes
// that access.
type Stream struct {
	typ     StreamType
	msg     *Message
	media   *SDPMedia
	src     types.Address
	dst     types.Address
	fmtcode uint8

	count        int
	firstTime    time.Time
	lastActivity time.Time
	changed      bool
	packets      []*types.Packet
}

// NewStream creates a stream for one media leg negotiated by msg/media.
func NewStream(typ StreamType, msg *Message, media *SDPMedia) *Stream {
	return &Stream{
		typ:   typ,
		msg:   msg,
		media: media,
	}
}

// Type returns the stream's media-leg role.
func (s *Stream) Type() StreamType {
	return s.typ
}

// Message returns the owning call message reference.
func (s *Stream) Message() *Message {
	return s.msg
}

// Media returns the SDP media description reference.
func (s *Stream) Media() *SDPMedia {
	return s.media
}

// SetSrc records the observed source endpoint. Last write wins.
func (s *Stream) SetSrc(src types.Address) {
	s.src = src
}

// SetDst records the observed destination endpoint. Last write wins.
func (s *Stream) SetDst(dst types.Address) {
	s.dst = dst
}

// SetData records both endpoints at once.
func (s *Stream) SetData(src, dst types.Address) {
	s.src = src
	s.dst = dst
}

// Src returns the recorded source endpoint.
func (s *Stream) Src() types.Address {
	return s.src
}

// Dst returns the recorded destination endpoint.
func (s *Stream) Dst() types.Address {
	return s.dst
}

// SetFormat records the negotiated numeric payload type code.
func (s *Stream) SetFormat(code uint8) {
	s.fmtcode = code
}

// FormatCode returns the recorded payload type code.
func (s *Stream) FormatCode() uint8 {
	return s.fmtcode
}

// AddPacket accounts one packet into the stream: bumps the counter,
// refreshes last-activity, marks the stream changed and retains a shared
// reference to the packet for later export or playback. The first packet's
// capture timestamp becomes the stream's start time.
func (s *Stream) AddPacket(pkt *types.Packet) {
	s.lastActivity = streamNow()
	s.changed = true
	s.count++
	if s.count == 1 {
		s.firstTime = pkt.Time()
	}
	s.packets = append(s.packets, pkt)
}

// Count returns the number of packets accounted so far.
func (s *Stream) Count() int {
	return s.count
}

// Packets returns the retained packet references, oldest first.
func (s *Stream) Packets() []*types.Packet {
	return s.packets
}

// Format resolves the stream's payload type to a displayable name: the
// static payload type table first, then the negotiated aliases of the
// associated SDP media. Returns "" when the stream has no media reference
// or the code is in neither source.
func (s *Stream) Format() string {
	if s == nil || s.media == nil {
		return ""
	}

	if encoding := StandardCodec(s.fmtcode); encoding != nil {
		return encoding.Format
	}

	for _, format := range s.media.Formats {
		if format.ID == s.fmtcode {
			return format.Alias
		}
	}

	return ""
}

// Time returns the stream's start timestamp; zero until the first packet
// arrives.
func (s *Stream) Time() time.Time {
	return s.firstTime
}

// IsActive reports whether a packet arrived within the inactivity
// threshold.
func (s *Stream) IsActive() bool {
	return streamNow().Sub(s.lastActivity) <= StreamInactiveThreshold
}

// Changed reports whether the stream was touched since the last MarkRead.
func (s *Stream) Changed() bool {
	return s.changed
}

// MarkRead clears the changed flag after a consumer refreshed its view.
func (s *Stream) MarkRead() {
	s.changed = false
}
