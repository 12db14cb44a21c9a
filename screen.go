package vnc

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/sorz/vncdisplay/imaging"
	"github.com/sorz/vncdisplay/zrle"
)

// Cursor is a pointer sprite: its RGB8 pixel plane plus a row-packed
// 1-bpp, MSB-first transparency bitmask. Both are precomputed once at
// Screen construction and never touched again.
type Cursor struct {
	size    Size
	pixels  []RGB8
	bitmask []byte
}

// Screen is the server's immutable rendered scene: the decoded background,
// its dimensions, and an optional cursor. It is constructed once and
// shared by pointer across every connection's goroutine; nothing about it
// changes for the life of the process, so no synchronisation guards it.
type Screen struct {
	dimensions Size
	background []RGB8
	cursor     *Cursor
}

// NewScreen decodes the background image at backgroundPath and, if
// cursorPath is non-empty, the cursor image at cursorPath, building the
// immutable Screen served to every connection. Dimensions exceeding 65535
// in either axis are rejected per §3, surfaced as ConfigError.
func NewScreen(backgroundPath, cursorPath string) (*Screen, error) {
	bg, err := imaging.Decode(backgroundPath)
	if err != nil {
		return nil, &ConfigError{Reason: "decode background image", Err: err}
	}

	s := &Screen{
		dimensions: Size{W: uint16(bg.Width), H: uint16(bg.Height)},
		background: toRGB8(bg.Pixels),
	}

	if cursorPath != "" {
		cur, err := imaging.Decode(cursorPath)
		if err != nil {
			return nil, &ConfigError{Reason: "decode cursor image", Err: err}
		}
		s.cursor = &Cursor{
			size:    Size{W: uint16(cur.Width), H: uint16(cur.Height)},
			pixels:  toRGB8(cur.Pixels),
			bitmask: cursorBitmask(cur),
		}
	}

	glog.Infof("screen: %dx%d background, cursor=%v", s.dimensions.W, s.dimensions.H, s.cursor != nil)
	return s, nil
}

func toRGB8(pixels []imaging.Pixel) []RGB8 {
	out := make([]RGB8, len(pixels))
	for i, p := range pixels {
		out[i] = RGB8{R: p.R, G: p.G, B: p.B, A: p.A}
	}
	return out
}

// cursorBitmask derives the Cursor pseudo-encoding's row-packed 1-bpp
// MSB-first transparency bitmask (RFC 6143 §7.8.1): each row has
// ceil(width/8) bytes; within a byte, pixel i occupies bit 7-(i mod 8);
// the bit is 1 iff the source alpha exceeds 0x80; unused low bits of a
// partial final byte are left zero.
func cursorBitmask(img *imaging.Image) []byte {
	rowBytes := (img.Width + 7) / 8
	mask := make([]byte, rowBytes*img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.Pixels[y*img.Width+x]
			if p.A <= 0x80 {
				continue
			}
			byteIdx := y*rowBytes + x/8
			bit := uint(7 - (x % 8))
			mask[byteIdx] |= 1 << bit
		}
	}
	return mask
}

// Dimensions returns the background's width and height.
func (s *Screen) Dimensions() Size { return s.dimensions }

// HasCursor reports whether a cursor sprite was configured.
func (s *Screen) HasCursor() bool { return s.cursor != nil }

// CursorSize returns the cursor sprite's dimensions, or the zero Size if
// none is configured.
func (s *Screen) CursorSize() Size {
	if s.cursor == nil {
		return Size{}
	}
	return s.cursor.size
}

// DrawRaw packs the entire background under pf, row-major top-to-bottom
// left-to-right, for a Raw-encoded rectangle (RFC 6143 §7.7.1).
func (s *Screen) DrawRaw(pf PixelFormat) ([]byte, error) {
	bpp := int(pf.BitsPerPixel) / 8
	buf := make([]byte, len(s.background)*bpp)
	if _, err := EncodePixels(pf, s.background, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// DrawZRLE tiles the background into 64x64 regions (RFC 6143 §7.7.6),
// row-major by tile, each clipped to the screen bounds. Every tile is
// written as a single raw-subencoding byte (0) followed by its pixels
// through EncodeCompressedPixels, all pushed into stream. After all tiles
// are written, stream is sync-flushed and the flushed bytes returned;
// stream itself is retained, ready for the connection's next frame.
func (s *Screen) DrawZRLE(pf PixelFormat, stream *zrle.Stream) ([]byte, error) {
	width, height := int(s.dimensions.W), int(s.dimensions.H)
	tiles := zrle.CreateTiles(width, height)

	// packed must hold whichever of EncodeCompressedPixels' two outcomes is
	// wider: a CPIXEL (3 bytes/pixel) when pf is CPIXEL-eligible, or a full
	// pf.BitsPerPixel/8 pixel when it falls back to EncodePixels (e.g. a
	// client-installed 32-bit true-colour format with depth > 24).
	bpp := int(pf.BitsPerPixel) / 8
	pixelSize := 3
	if bpp > pixelSize {
		pixelSize = bpp
	}

	var scratch []RGB8
	var packed []byte
	for _, t := range tiles {
		if n := t.Width * t.Height; cap(scratch) < n {
			scratch = make([]RGB8, n)
		}
		if n := t.Width * t.Height * pixelSize; cap(packed) < n {
			packed = make([]byte, n)
		}
		pixels := scratch[:t.Width*t.Height]
		for row := 0; row < t.Height; row++ {
			srcOff := (t.Y+row)*width + t.X
			copy(pixels[row*t.Width:(row+1)*t.Width], s.background[srcOff:srcOff+t.Width])
		}

		if _, err := stream.Write([]byte{0}); err != nil {
			return nil, fmt.Errorf("vnc: zrle tile write: %w", err)
		}
		n, err := EncodeCompressedPixels(pf, pixels, packed)
		if err != nil {
			return nil, err
		}
		if _, err := stream.Write(packed[:n]); err != nil {
			return nil, fmt.Errorf("vnc: zrle tile write: %w", err)
		}
	}

	return stream.Flush()
}

// DrawCursor packs the cursor's pixels under pf followed by its raw
// bitmask bytes, the payload for a Cursor pseudo-encoding rectangle. It
// returns ok=false if no cursor was configured.
func (s *Screen) DrawCursor(pf PixelFormat) (buf []byte, ok bool, err error) {
	if s.cursor == nil {
		return nil, false, nil
	}
	bpp := int(pf.BitsPerPixel) / 8
	pixelBuf := make([]byte, len(s.cursor.pixels)*bpp)
	if _, err := EncodePixels(pf, s.cursor.pixels, pixelBuf); err != nil {
		return nil, false, err
	}
	buf = make([]byte, 0, len(pixelBuf)+len(s.cursor.bitmask))
	buf = append(buf, pixelBuf...)
	buf = append(buf, s.cursor.bitmask...)
	return buf, true, nil
}
