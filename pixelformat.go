package vnc

import (
	"encoding/binary"
	"fmt"
)

// RGB8 is a single background or cursor source pixel, one byte per channel.
// Alpha is only meaningful for cursor sprites, where it drives the
// transparency bitmask; background pixels ignore it.
type RGB8 struct {
	R, G, B, A uint8
}

// PixelFormat describes how a pixel is packed onto the wire, per RFC 6143
// §7.4. It is the negotiated state a client installs with SetPixelFormat;
// until then, a connection uses RGB888.
type PixelFormat struct {
	BitsPerPixel uint8
	Depth        uint8
	BigEndian    bool
	TrueColour   bool
	RedMax       uint16
	GreenMax     uint16
	BlueMax      uint16
	RedShift     uint8
	GreenShift   uint8
	BlueShift    uint8
}

// RGB888 is the default pixel format a connection starts with, per §3.
var RGB888 = PixelFormat{
	BitsPerPixel: 32,
	Depth:        24,
	BigEndian:    false,
	TrueColour:   true,
	RedMax:       0xff,
	GreenMax:     0xff,
	BlueMax:      0xff,
	RedShift:     16,
	GreenShift:   8,
	BlueShift:    0,
}

// pixelFormatWireLen is the on-wire size of a PixelFormat: 13 bytes for its
// 10 fields plus 3 bytes of zero padding (RFC 6143 §7.4).
const pixelFormatWireLen = 16

// ParsePixelFormat decodes the 16-byte wire form of a PixelFormat.
// It rejects any bits-per-pixel outside {8,16,32} and any depth greater
// than bits-per-pixel; the 3 trailing padding bytes are ignored.
func ParsePixelFormat(b []byte) (PixelFormat, error) {
	if len(b) < pixelFormatWireLen {
		return PixelFormat{}, fmt.Errorf("vnc: short pixel format: %d bytes", len(b))
	}
	pf := PixelFormat{
		BitsPerPixel: b[0],
		Depth:        b[1],
		BigEndian:    b[2] != 0,
		TrueColour:   b[3] != 0,
		RedMax:       binary.BigEndian.Uint16(b[4:6]),
		GreenMax:     binary.BigEndian.Uint16(b[6:8]),
		BlueMax:      binary.BigEndian.Uint16(b[8:10]),
		RedShift:     b[10],
		GreenShift:   b[11],
		BlueShift:    b[12],
	}
	switch pf.BitsPerPixel {
	case 8, 16, 32:
	default:
		return PixelFormat{}, &ProtocolError{fmt.Sprintf("invalid bits-per-pixel: %d", pf.BitsPerPixel)}
	}
	if pf.Depth > pf.BitsPerPixel {
		return PixelFormat{}, &ProtocolError{fmt.Sprintf("depth %d exceeds bits-per-pixel %d", pf.Depth, pf.BitsPerPixel)}
	}
	return pf, nil
}

// Marshal encodes the PixelFormat into its 16-byte wire form, with the
// trailing 3 padding bytes set to zero.
func (pf PixelFormat) Marshal() [pixelFormatWireLen]byte {
	var out [pixelFormatWireLen]byte
	out[0] = pf.BitsPerPixel
	out[1] = pf.Depth
	out[2] = boolByte(pf.BigEndian)
	out[3] = boolByte(pf.TrueColour)
	binary.BigEndian.PutUint16(out[4:6], pf.RedMax)
	binary.BigEndian.PutUint16(out[6:8], pf.GreenMax)
	binary.BigEndian.PutUint16(out[8:10], pf.BlueMax)
	out[10] = pf.RedShift
	out[11] = pf.GreenShift
	out[12] = pf.BlueShift
	// out[13:16] stay zero: reserved padding.
	return out
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// pack computes the wire-order pixel value for p under format pf, per
// RFC 6143 §7.7.1: each channel is scaled from 0-255 into the format's
// max range with truncating integer division, then shifted into place.
func pack(pf PixelFormat, p RGB8) uint32 {
	r := uint32(p.R) * uint32(pf.RedMax) / 255
	g := uint32(p.G) * uint32(pf.GreenMax) / 255
	b := uint32(p.B) * uint32(pf.BlueMax) / 255
	return (r << pf.RedShift) | (g << pf.GreenShift) | (b << pf.BlueShift)
}

func putPixel(buf []byte, pf PixelFormat, v uint32) {
	switch pf.BitsPerPixel {
	case 8:
		buf[0] = byte(v)
	case 16:
		if pf.BigEndian {
			binary.BigEndian.PutUint16(buf, uint16(v))
		} else {
			binary.LittleEndian.PutUint16(buf, uint16(v))
		}
	case 32:
		if pf.BigEndian {
			binary.BigEndian.PutUint32(buf, v)
		} else {
			binary.LittleEndian.PutUint32(buf, v)
		}
	}
}

// EncodePixels packs pixels into the wire bytes for format pf, writing
// bitsPerPixel/8 bytes per pixel in row-major order. Only true-colour
// formats are supported; anything else fails with UnsupportedError, per
// RFC 6143 §7.7.1.
func EncodePixels(pf PixelFormat, pixels []RGB8, w []byte) (int, error) {
	if !pf.TrueColour {
		return 0, &UnsupportedError{"non-true-colour pixel format"}
	}
	bpp := int(pf.BitsPerPixel) / 8
	need := bpp * len(pixels)
	if len(w) < need {
		return 0, fmt.Errorf("vnc: encode buffer too small: need %d, have %d", need, len(w))
	}
	for i, p := range pixels {
		putPixel(w[i*bpp:], pf, pack(pf, p))
	}
	return need, nil
}

// cpixelEligible reports whether pf qualifies for the compact 3-byte
// CPIXEL representation used inside ZRLE tiles (RFC 6143 §7.7.6): 32-bit
// true-colour with depth no greater than 24.
func cpixelEligible(pf PixelFormat) bool {
	return pf.TrueColour && pf.BitsPerPixel == 32 && pf.Depth <= 24
}

// EncodeCompressedPixels packs pixels as CPIXELs (3 bytes/pixel) when pf
// is 32-bit true-colour with depth <= 24, in (R,G,B) order if big-endian
// else (B,G,R). Depths strictly between 16 and 24 are not representable
// by this packer and fail with UnsupportedError (see SPEC_FULL.md §9).
// Any other format falls back to EncodePixels.
func EncodeCompressedPixels(pf PixelFormat, pixels []RGB8, w []byte) (int, error) {
	if !cpixelEligible(pf) {
		return EncodePixels(pf, pixels, w)
	}
	if pf.Depth > 16 && pf.Depth < 24 {
		return 0, &UnsupportedError{fmt.Sprintf("CPIXEL depth %d not representable", pf.Depth)}
	}
	need := 3 * len(pixels)
	if len(w) < need {
		return 0, fmt.Errorf("vnc: encode buffer too small: need %d, have %d", need, len(w))
	}
	for i, p := range pixels {
		v := pack(pf, p)
		r := byte(v >> pf.RedShift)
		g := byte(v >> pf.GreenShift)
		b := byte(v >> pf.BlueShift)
		out := w[i*3 : i*3+3]
		if pf.BigEndian {
			out[0], out[1], out[2] = r, g, b
		} else {
			out[0], out[1], out[2] = b, g, r
		}
	}
	return need, nil
}
