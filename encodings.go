/*
Implementation of RFC 6143 §7.7 & §7.8 Encodings, server side.

The server only ever emits three of these: Raw, ZRLE, and the Cursor
pseudo-encoding. Everything else a client advertises in SetEncodings is
recorded as Other so a round-trip through DecodeEncoding/Code never loses
information, even though the server never produces it.
*/
package vnc

import (
	"github.com/sorz/vncdisplay/encodings"
)

// Encoding is a tagged variant over the handful of encodings this server
// cares about, plus a catch-all for anything else a client names.
type Encoding struct {
	code  encodings.Encoding
	known bool
}

// Known encoding tags. Cursor is a pseudo-encoding (RFC 6143 §7.8.1): it
// carries cursor sprite data rather than screen contents.
var (
	EncodingRaw    = Encoding{code: encodings.Raw, known: true}
	EncodingZRLE   = Encoding{code: encodings.ZRLE, known: true}
	EncodingCursor = Encoding{code: encodings.CursorPseudo, known: true}
)

// OtherEncoding wraps any encoding code the server does not implement. It
// exists so SetEncodings lists containing unrecognised codes still decode
// cleanly instead of failing the connection.
func OtherEncoding(code int32) Encoding {
	return Encoding{code: encodings.Encoding(code)}
}

// DecodeEncoding maps a wire code to its tagged Encoding, per RFC 6143
// §7.7/§7.8. Unknown codes become Other and survive a round trip unchanged.
func DecodeEncoding(code int32) Encoding {
	switch encodings.Encoding(code) {
	case encodings.Raw:
		return EncodingRaw
	case encodings.ZRLE:
		return EncodingZRLE
	case encodings.CursorPseudo:
		return EncodingCursor
	default:
		return OtherEncoding(code)
	}
}

// Code returns the wire code for e, the inverse of DecodeEncoding.
func (e Encoding) Code() int32 { return int32(e.code) }

// Known reports whether e is one of the encodings this server recognises,
// as opposed to an Other(code) catch-all.
func (e Encoding) Known() bool { return e.known }

// IsRaw, IsZRLE and IsCursor report which of the three known tags e holds.
func (e Encoding) IsRaw() bool    { return e == EncodingRaw }
func (e Encoding) IsZRLE() bool   { return e == EncodingZRLE }
func (e Encoding) IsCursor() bool { return e == EncodingCursor }

func (e Encoding) String() string {
	switch {
	case e.IsRaw():
		return "Raw"
	case e.IsZRLE():
		return "ZRLE"
	case e.IsCursor():
		return "Cursor"
	default:
		return "Other"
	}
}

// EncodingSet is the set of encodings a client advertised via SetEncodings.
// Order doesn't matter to this server: it only asks "did the client name
// ZRLE" / "did the client name Cursor".
type EncodingSet struct {
	zrle   bool
	cursor bool
}

// Observe folds one more advertised encoding into the set.
func (s *EncodingSet) Observe(e Encoding) {
	switch {
	case e.IsZRLE():
		s.zrle = true
	case e.IsCursor():
		s.cursor = true
	}
}

// SupportsZRLE reports whether the client advertised ZRLE.
func (s EncodingSet) SupportsZRLE() bool { return s.zrle }

// SupportsCursor reports whether the client advertised the Cursor
// pseudo-encoding.
func (s EncodingSet) SupportsCursor() bool { return s.cursor }

// Position is a 2D point in framebuffer coordinates, both axes bounded to
// the 16-bit range the wire format allows.
type Position struct {
	X, Y uint16
}

// Size is a rectangle's width and height, both bounded to 16 bits.
type Size struct {
	W, H uint16
}

// FrameRectangle is a positioned, encoded image region: one entry of a
// FramebufferUpdate message (RFC 6143 §7.6.1).
type FrameRectangle struct {
	Position Position
	Size     Size
	Encoding Encoding
	Buf      []byte
}

// NewRawRectangle places a raw full-screen frame at (0,0), per §3's fixed
// construction policy.
func NewRawRectangle(size Size, buf []byte) FrameRectangle {
	return FrameRectangle{Size: size, Encoding: EncodingRaw, Buf: buf}
}

// NewZRLERectangle places a ZRLE full-screen frame at (0,0).
func NewZRLERectangle(size Size, buf []byte) FrameRectangle {
	return FrameRectangle{Size: size, Encoding: EncodingZRLE, Buf: buf}
}

// NewCursorRectangle places a cursor rectangle at (size.W/2, size.H/2): the
// hotspot, encoded per the RFB Cursor pseudo-encoding (RFC 6143 §7.8.1).
func NewCursorRectangle(size Size, buf []byte) FrameRectangle {
	return FrameRectangle{
		Position: Position{X: size.W / 2, Y: size.H / 2},
		Size:     size,
		Encoding: EncodingCursor,
		Buf:      buf,
	}
}
