/*
Client message parsing, RFC 6143 §7.5. One tag byte selects the message;
the parser reads exactly that message's trailing bytes before returning.
*/
package vnc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Client-to-server message tags (RFC 6143 §7.5).
const (
	tagSetPixelFormat           = 0
	tagSetEncodings             = 2
	tagFramebufferUpdateRequest = 3
	tagKeyEvent                 = 4
	tagPointerEvent             = 5
	tagClientCutText            = 6
)

// ClientMessage is the tagged sum of messages a client may send after the
// handshake completes.
type ClientMessage interface {
	isClientMessage()
}

// SetPixelFormatMsg requests a new pixel format for all subsequent frames.
type SetPixelFormatMsg struct {
	Format PixelFormat
}

// SetEncodingsMsg advertises the encodings a client will accept.
type SetEncodingsMsg struct {
	Encodings []Encoding
}

// FramebufferUpdateRequestMsg asks the server to render and send a frame.
type FramebufferUpdateRequestMsg struct {
	Incremental bool
	Position    Position
	Size        Size
}

// KeyEventMsg, PointerEventMsg and ClientCutTextMsg carry no payload
// beyond what the parser consumes from the stream: spec.md places input
// events and clipboard text out of scope beyond parse-and-discard.
type KeyEventMsg struct{}
type PointerEventMsg struct{}
type ClientCutTextMsg struct{}

func (SetPixelFormatMsg) isClientMessage()           {}
func (SetEncodingsMsg) isClientMessage()             {}
func (FramebufferUpdateRequestMsg) isClientMessage() {}
func (KeyEventMsg) isClientMessage()                 {}
func (PointerEventMsg) isClientMessage()             {}
func (ClientCutTextMsg) isClientMessage()            {}

// MessageReader parses one client message at a time off r, reusing a
// single growable scratch buffer across calls. The reuse is an
// allocation-reduction contract, not a correctness one (§4.4): callers
// must not retain the scratch slice's backing array past the next call,
// but every ClientMessage returned owns its own data.
type MessageReader struct {
	r       io.Reader
	scratch []byte
}

// NewMessageReader wraps r for message-at-a-time reads.
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{r: r}
}

// scratchN returns m's scratch buffer resized to exactly n bytes,
// reallocating only when it must grow.
func (m *MessageReader) scratchN(n int) []byte {
	if cap(m.scratch) < n {
		m.scratch = make([]byte, n)
	}
	return m.scratch[:n]
}

// Next reads and parses the next client message. A clean EOF at a tag
// boundary returns (nil, io.EOF); an EOF mid-message, or an unrecognised
// tag, returns a *ProtocolError.
func (m *MessageReader) Next() (ClientMessage, error) {
	tagBuf := m.scratchN(1)
	if _, err := io.ReadFull(m.r, tagBuf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &ProtocolError{fmt.Sprintf("reading message tag: %v", err)}
	}

	switch tagBuf[0] {
	case tagSetPixelFormat:
		return m.readSetPixelFormat()
	case tagSetEncodings:
		return m.readSetEncodings()
	case tagFramebufferUpdateRequest:
		return m.readFramebufferUpdateRequest()
	case tagKeyEvent:
		return m.readDiscard(7, KeyEventMsg{})
	case tagPointerEvent:
		return m.readDiscard(5, PointerEventMsg{})
	case tagClientCutText:
		return m.readClientCutText()
	default:
		return nil, &ProtocolError{fmt.Sprintf("unknown message tag %d", tagBuf[0])}
	}
}

// readDiscard reads and throws away n bytes following a tag whose payload
// the server never inspects (KeyEvent, PointerEvent).
func (m *MessageReader) readDiscard(n int, msg ClientMessage) (ClientMessage, error) {
	buf := m.scratchN(n)
	if _, err := io.ReadFull(m.r, buf); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading discarded payload: %v", err)}
	}
	return msg, nil
}

func (m *MessageReader) readSetPixelFormat() (ClientMessage, error) {
	// 3 bytes padding + 16-byte PixelFormat.
	buf := m.scratchN(3 + 16)
	if _, err := io.ReadFull(m.r, buf); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading SetPixelFormat: %v", err)}
	}
	pf, err := ParsePixelFormat(buf[3:])
	if err != nil {
		return nil, err
	}
	return SetPixelFormatMsg{Format: pf}, nil
}

func (m *MessageReader) readSetEncodings() (ClientMessage, error) {
	hdr := m.scratchN(1 + 2)
	if _, err := io.ReadFull(m.r, hdr); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading SetEncodings header: %v", err)}
	}
	n := int(binary.BigEndian.Uint16(hdr[1:3]))

	body := m.scratchN(n * 4)
	if _, err := io.ReadFull(m.r, body); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading SetEncodings body: %v", err)}
	}

	encs := make([]Encoding, n)
	for i := 0; i < n; i++ {
		code := int32(binary.BigEndian.Uint32(body[i*4 : i*4+4]))
		encs[i] = DecodeEncoding(code)
	}
	return SetEncodingsMsg{Encodings: encs}, nil
}

func (m *MessageReader) readFramebufferUpdateRequest() (ClientMessage, error) {
	buf := m.scratchN(1 + 2*4)
	if _, err := io.ReadFull(m.r, buf); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading FramebufferUpdateRequest: %v", err)}
	}
	return FramebufferUpdateRequestMsg{
		Incremental: buf[0] != 0,
		Position: Position{
			X: binary.BigEndian.Uint16(buf[1:3]),
			Y: binary.BigEndian.Uint16(buf[3:5]),
		},
		Size: Size{
			W: binary.BigEndian.Uint16(buf[5:7]),
			H: binary.BigEndian.Uint16(buf[7:9]),
		},
	}, nil
}

func (m *MessageReader) readClientCutText() (ClientMessage, error) {
	hdr := m.scratchN(3 + 4)
	if _, err := io.ReadFull(m.r, hdr); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading ClientCutText header: %v", err)}
	}
	n := binary.BigEndian.Uint32(hdr[3:7])

	body := m.scratchN(int(n))
	if _, err := io.ReadFull(m.r, body); err != nil {
		return nil, &ProtocolError{fmt.Sprintf("reading ClientCutText body: %v", err)}
	}
	return ClientCutTextMsg{}, nil
}
