package zrle

import (
	"bytes"
	"compress/zlib"
	"fmt"

	"github.com/golang/glog"
)

// Stream is the single zlib stream a ZRLE connection compresses all of its
// tile data through. RFC 6143 §7.7.6 requires this: the compressor's
// sliding window must span every FramebufferUpdate the connection sends,
// not just the current one, so the stream is allocated once per connection
// (on first observed use of ZRLE) and never reset.
type Stream struct {
	buf *bytes.Buffer
	zw  *zlib.Writer
}

// NewStream allocates a zlib encoder at default compression, matching the
// original implementation's flate2 default-level ZlibEncoder.
func NewStream() *Stream {
	buf := new(bytes.Buffer)
	return &Stream{buf: buf, zw: zlib.NewWriter(buf)}
}

// Write feeds raw tile bytes into the zlib stream. It never flushes on its
// own; call Flush once a rectangle's tiles are all written.
func (s *Stream) Write(p []byte) (int, error) {
	return s.zw.Write(p)
}

// Flush performs a sync-flush (so everything written so far becomes a
// decodable prefix without resetting the compressor's dictionary) and
// returns the bytes produced since the last Flush. The underlying zlib
// writer is retained, ready for the next rectangle.
func (s *Stream) Flush() ([]byte, error) {
	if err := s.zw.Flush(); err != nil {
		return nil, fmt.Errorf("zrle: zlib flush: %w", err)
	}
	out := s.buf.Bytes()
	taken := make([]byte, len(out))
	copy(taken, out)
	s.buf.Reset()
	glog.V(2).Infof("zrle: flushed %d bytes", len(taken))
	return taken, nil
}

// Close releases the zlib writer. It does not need to flush: a connection
// that closes mid-stream has no decoder left to satisfy anyway.
func (s *Stream) Close() error {
	return s.zw.Close()
}
