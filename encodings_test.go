package vnc

import (
	"testing"

	"github.com/sorz/vncdisplay/encodings"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodingKnownCodes(t *testing.T) {
	require.Equal(t, EncodingRaw, DecodeEncoding(int32(encodings.Raw)))
	require.Equal(t, EncodingZRLE, DecodeEncoding(int32(encodings.ZRLE)))
	require.Equal(t, EncodingCursor, DecodeEncoding(int32(encodings.CursorPseudo)))

	require.True(t, EncodingRaw.Known())
	require.True(t, EncodingZRLE.Known())
	require.True(t, EncodingCursor.Known())
}

func TestDecodeEncodingUnknownCodeRoundTrips(t *testing.T) {
	e := DecodeEncoding(int32(encodings.Tight))
	require.False(t, e.Known())
	require.Equal(t, int32(encodings.Tight), e.Code())
	require.Equal(t, "Other", e.String())
}

func TestEncodingSetObserve(t *testing.T) {
	var set EncodingSet
	require.False(t, set.SupportsZRLE())
	require.False(t, set.SupportsCursor())

	set.Observe(DecodeEncoding(int32(encodings.Hextile)))
	require.False(t, set.SupportsZRLE())

	set.Observe(EncodingZRLE)
	set.Observe(EncodingCursor)
	require.True(t, set.SupportsZRLE())
	require.True(t, set.SupportsCursor())
}

func TestNewCursorRectangleHotspot(t *testing.T) {
	size := Size{W: 32, H: 20}
	r := NewCursorRectangle(size, []byte{1, 2, 3})
	require.Equal(t, Position{X: 16, Y: 10}, r.Position)
	require.True(t, r.Encoding.IsCursor())
}

func TestNewRawAndZRLERectanglesAtOrigin(t *testing.T) {
	size := Size{W: 100, H: 70}
	raw := NewRawRectangle(size, []byte{0xaa})
	require.Equal(t, Position{}, raw.Position)
	require.True(t, raw.Encoding.IsRaw())

	zrle := NewZRLERectangle(size, []byte{0xbb})
	require.Equal(t, Position{}, zrle.Position)
	require.True(t, zrle.Encoding.IsZRLE())
}
