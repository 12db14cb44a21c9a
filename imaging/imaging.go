/*
Package imaging is the image-decode collaborator spec.md places out of
scope: "image file decoding (bitmap → RGB8 buffer with dimensions)". It
decodes PNG, JPEG or BMP files into a flat RGB8 pixel buffer and reports
their dimensions; it applies no RFB-specific policy.

This is stdlib-image-registry glue, not a protocol or encoding concern, so
it is built on the standard library's decoder interface rather than a
bespoke one. BMP support is the one third-party decoder registered here,
grounded on the retrieved sergeymakinen/go-bmp package.
*/
package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/sergeymakinen/go-bmp"
)

// Pixel is a single decoded source pixel.
type Pixel struct {
	R, G, B, A uint8
}

// Image is a decoded picture: a row-major, top-to-bottom, left-to-right
// flat buffer of its pixels plus its dimensions.
type Image struct {
	Width, Height int
	Pixels        []Pixel
}

// maxDimension is the largest width or height the wire format's 16-bit
// framebuffer dimensions can carry.
const maxDimension = 65535

// Decode opens and decodes path, rejecting images wider or taller than
// 65535 pixels — the limit spec.md's Screen construction places on both
// axes.
func Decode(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imaging: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", path, err)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("imaging: %s is %dx%d, exceeds %d in an axis", path, width, height, maxDimension)
	}

	pixels := make([]Pixel, width*height)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			pixels[i] = Pixel{R: to8(r), G: to8(g), B: to8(bl), A: to8(a)}
			i++
		}
	}

	return &Image{Width: width, Height: height, Pixels: pixels}, nil
}

// to8 narrows a color.Color's 16-bit-per-channel value (as returned by
// RGBA()) down to 8 bits.
func to8(v uint32) uint8 { return uint8(v >> 8) }
