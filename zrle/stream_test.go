package zrle

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamFlushIsDecodableAndDictionaryPersists(t *testing.T) {
	s := NewStream()

	first, err := s.Write([]byte("tile-one"))
	require.NoError(t, err)
	require.Equal(t, len("tile-one"), first)
	part1, err := s.Flush()
	require.NoError(t, err)
	require.NotEmpty(t, part1)

	_, err = s.Write([]byte("tile-two"))
	require.NoError(t, err)

	// Close (rather than Flush) so the stream's final block and checksum
	// trailer are written, giving us a decodable whole for this assertion.
	// A live connection never does this mid-stream; it only happens here
	// to let a stdlib zlib.Reader validate what Flush produced.
	require.NoError(t, s.zw.Close())
	part2 := s.buf.Bytes()
	require.NotEmpty(t, part2)

	// Both chunks belong to the SAME zlib stream: concatenating them and
	// running them through one reader must reproduce both tiles, proving
	// the dictionary carried across the Flush boundary.
	combined := append(append([]byte{}, part1...), part2...)
	zr, err := zlib.NewReader(bytes.NewReader(combined))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, "tile-onetile-two", string(out))
}

func TestStreamCloseDoesNotPanic(t *testing.T) {
	s := NewStream()
	_, _ = s.Write([]byte("x"))
	require.NoError(t, s.Close())
}
