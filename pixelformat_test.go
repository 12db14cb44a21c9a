package vnc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPixelFormatRoundTrip(t *testing.T) {
	cases := []PixelFormat{
		RGB888,
		{BitsPerPixel: 16, Depth: 16, BigEndian: true, TrueColour: true, RedMax: 0x1f, GreenMax: 0x3f, BlueMax: 0x1f, RedShift: 11, GreenShift: 5, BlueShift: 0},
		{BitsPerPixel: 8, Depth: 8, TrueColour: true, RedMax: 7, GreenMax: 7, BlueMax: 3, RedShift: 5, GreenShift: 2, BlueShift: 0},
	}
	for _, pf := range cases {
		wire := pf.Marshal()
		got, err := ParsePixelFormat(wire[:])
		require.NoError(t, err)
		require.Equal(t, pf, got)
		// Trailing 3 padding bytes must be zero on write.
		require.Equal(t, [3]byte{0, 0, 0}, [3]byte{wire[13], wire[14], wire[15]})
	}
}

func TestPixelFormatRejection(t *testing.T) {
	base := RGB888.Marshal()

	badBPP := base
	badBPP[0] = 24
	_, err := ParsePixelFormat(badBPP[:])
	require.Error(t, err)

	badDepth := base
	badDepth[1] = badDepth[0] + 1
	_, err = ParsePixelFormat(badDepth[:])
	require.Error(t, err)
}

func TestEncodePixelsRGB888(t *testing.T) {
	pixels := []RGB8{{R: 0xff, G: 0x80, B: 0x00}}
	buf := make([]byte, 4)
	n, err := EncodePixels(RGB888, pixels, buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	// little-endian, shifts 16/8/0: byte0=B, byte1=G, byte2=R, byte3=0
	require.Equal(t, byte(0x00), buf[0])
	require.Equal(t, byte(0x80), buf[1])
	require.Equal(t, byte(0xff), buf[2])
	require.Equal(t, byte(0x00), buf[3])
}

func TestEncodePixelsRejectsNonTrueColour(t *testing.T) {
	pf := RGB888
	pf.TrueColour = false
	_, err := EncodePixels(pf, []RGB8{{}}, make([]byte, 4))
	require.Error(t, err)
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}

func TestEncodeCompressedPixelsCPIXEL(t *testing.T) {
	pixels := []RGB8{{R: 0x10, G: 0x20, B: 0x30}}
	buf := make([]byte, 3)
	n, err := EncodeCompressedPixels(RGB888, pixels, buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	// little-endian CPIXEL order: B, G, R.
	require.Equal(t, []byte{0x30, 0x20, 0x10}, buf)
}

func TestEncodeCompressedPixelsFallsBackWhenNotEligible(t *testing.T) {
	pf := PixelFormat{BitsPerPixel: 16, Depth: 16, TrueColour: true, RedMax: 0x1f, GreenMax: 0x3f, BlueMax: 0x1f, RedShift: 11, GreenShift: 5, BlueShift: 0}
	pixels := []RGB8{{R: 0xff, G: 0xff, B: 0xff}}
	buf := make([]byte, 2)
	n, err := EncodeCompressedPixels(pf, pixels, buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestEncodeCompressedPixelsRejectsOpenIntervalDepth(t *testing.T) {
	pf := RGB888
	pf.Depth = 20
	_, err := EncodeCompressedPixels(pf, []RGB8{{}}, make([]byte, 3))
	require.Error(t, err)
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}
