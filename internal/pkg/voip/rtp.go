package voip

// RTPEncoding describes one static RTP payload type assignment.
type RTPEncoding struct {
	Code   uint8
	Name   string
	Format string
}

// rtpEncodings is the RFC 3551 static payload type table. Dynamic payload
// types (96-127) are resolved from SDP instead.
var rtpEncodings = []RTPEncoding{
	{0, "PCMU/8000", "g711u"},
	{3, "GSM/8000", "gsm"},
	{4, "G723/8000", "g723"},
	{5, "DVI4/8000", "dvi4"},
	{6, "DVI4/16000", "dvi4"},
	{7, "LPC/8000", "lpc"},
	{8, "PCMA/8000", "g711a"},
	{9, "G722/8000", "g722"},
	{10, "L16/44100/2", "l16"},
	{11, "L16/44100", "l16"},
	{12, "QCELP/8000", "qcelp"},
	{13, "CN/8000", "cn"},
	{14, "MPA/90000", "mpa"},
	{15, "G728/8000", "g728"},
	{16, "DVI4/11025", "dvi4"},
	{17, "DVI4/22050", "dvi4"},
	{18, "G729/8000", "g729"},
	{25, "CelB/90000", "celb"},
	{26, "JPEG/90000", "jpeg"},
	{28, "nv/90000", "nv"},
	{31, "H261/90000", "h261"},
	{32, "MPV/90000", "mpv"},
	{33, "MP2T/90000", "mp2t"},
	{34, "H263/90000", "h263"},
}

// StandardCodec looks up code in the static payload type table. Returns nil
// for dynamic or unassigned payload types.
func StandardCodec(code uint8) *RTPEncoding {
	for i := range rtpEncodings {
		if rtpEncodings[i].Code == code {
			return &rtpEncodings[i]
		}
	}
	return nil
}
