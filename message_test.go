package vnc

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/sorz/vncdisplay/encodings"
	"github.com/stretchr/testify/require"
)

func TestMessageReaderCleanEOF(t *testing.T) {
	r := NewMessageReader(bytes.NewReader(nil))
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestMessageReaderUnknownTag(t *testing.T) {
	r := NewMessageReader(bytes.NewReader([]byte{99}))
	_, err := r.Next()
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestMessageReaderEOFMidMessageIsProtocolError(t *testing.T) {
	// SetPixelFormat tag with a truncated body.
	r := NewMessageReader(bytes.NewReader([]byte{0, 0, 0}))
	_, err := r.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestMessageReaderSetPixelFormat(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0) // tag
	buf.Write(make([]byte, 3))
	wire := RGB888.Marshal()
	buf.Write(wire[:])

	r := NewMessageReader(&buf)
	msg, err := r.Next()
	require.NoError(t, err)
	spf, ok := msg.(SetPixelFormatMsg)
	require.True(t, ok)
	require.Equal(t, RGB888, spf.Format)
}

func TestMessageReaderSetEncodings(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(2)
	buf.Write(make([]byte, 1)) // padding
	binary.Write(&buf, binary.BigEndian, uint16(2))
	binary.Write(&buf, binary.BigEndian, int32(encodings.ZRLE))
	binary.Write(&buf, binary.BigEndian, int32(encodings.Tight))

	r := NewMessageReader(&buf)
	msg, err := r.Next()
	require.NoError(t, err)
	se, ok := msg.(SetEncodingsMsg)
	require.True(t, ok)
	require.Len(t, se.Encodings, 2)
	require.True(t, se.Encodings[0].IsZRLE())
	require.False(t, se.Encodings[1].Known())
}

func TestMessageReaderFramebufferUpdateRequest(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(3)
	buf.WriteByte(1) // incremental
	binary.Write(&buf, binary.BigEndian, uint16(10))
	binary.Write(&buf, binary.BigEndian, uint16(20))
	binary.Write(&buf, binary.BigEndian, uint16(30))
	binary.Write(&buf, binary.BigEndian, uint16(40))

	r := NewMessageReader(&buf)
	msg, err := r.Next()
	require.NoError(t, err)
	req, ok := msg.(FramebufferUpdateRequestMsg)
	require.True(t, ok)
	require.True(t, req.Incremental)
	require.Equal(t, Position{X: 10, Y: 20}, req.Position)
	require.Equal(t, Size{W: 30, H: 40}, req.Size)
}

func TestMessageReaderKeyAndPointerEventsDiscarded(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(4)
	// down-flag(1) + padding(2) + key(4) = 7 bytes (RFC 6143 §7.5.4).
	buf.Write(make([]byte, 7))
	buf.WriteByte(5)
	buf.Write(make([]byte, 5))
	// A real FramebufferUpdateRequest right after, to prove the KeyEvent
	// and PointerEvent reads consumed exactly their own bytes and left the
	// stream aligned on the next message's tag.
	buf.WriteByte(3)
	buf.WriteByte(0)
	for i := 0; i < 4; i++ {
		binary.Write(&buf, binary.BigEndian, uint16(0))
	}

	r := NewMessageReader(&buf)
	msg, err := r.Next()
	require.NoError(t, err)
	require.IsType(t, KeyEventMsg{}, msg)

	msg, err = r.Next()
	require.NoError(t, err)
	require.IsType(t, PointerEventMsg{}, msg)

	msg, err = r.Next()
	require.NoError(t, err)
	require.IsType(t, FramebufferUpdateRequestMsg{}, msg)
}

func TestMessageReaderClientCutText(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(6)
	buf.Write(make([]byte, 3))
	binary.Write(&buf, binary.BigEndian, uint32(5))
	buf.WriteString("hello")

	r := NewMessageReader(&buf)
	msg, err := r.Next()
	require.NoError(t, err)
	require.IsType(t, ClientCutTextMsg{}, msg)
}

func TestMessageReaderMessageThenCleanEOF(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(3)
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(0))

	r := NewMessageReader(&buf)
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}
