/*
Per-connection state and the update loop, RFC 6143 §6/§7.6. A Conn is
wholly sequential: one message is read, handled, and (for a non-incremental
FramebufferUpdateRequest) answered with a frame before the next message is
read. Nothing about a Conn is ever touched by another goroutine.
*/
package vnc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/golang/glog"
	"github.com/sorz/vncdisplay/metrics"
	"github.com/sorz/vncdisplay/zrle"
)

// serverMessageFramebufferUpdate is the one server-to-client message type
// this server ever sends (RFC 6143 §7.6.1).
const serverMessageFramebufferUpdate = 0

// Conn is one accepted client connection: its negotiated PixelFormat, the
// encodings it has advertised, and (once ZRLE is observed) its persistent
// zlib stream. The backing Screen is shared and immutable; everything else
// here is private to this connection.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer
	msgs *MessageReader

	screen *Screen
	name   string

	format     PixelFormat
	encodings  EncodingSet
	pointerOK  bool
	zrleStream *zrle.Stream

	metrics metrics.Set
}

// newConn wraps an accepted net.Conn for service against screen, reporting
// itself to clients under name.
func newConn(nc net.Conn, screen *Screen, name string) *Conn {
	c := &Conn{
		conn:   nc,
		br:     bufio.NewReader(nc),
		bw:     bufio.NewWriter(nc),
		screen: screen,
		name:   name,
		format: RGB888,
	}
	c.msgs = NewMessageReader(c.br)
	return c
}

// serve drives one connection end to end: handshake, then the message
// loop, until EOF or an unrecoverable error. It never panics the caller:
// every error is returned so the accept loop can log it and move on to
// the next connection (§7: per-connection errors never stop the listener).
func (c *Conn) serve() error {
	defer c.conn.Close()

	peer := c.conn.RemoteAddr()
	if err := c.handshake(); err != nil {
		return fmt.Errorf("handshake with %s: %w", peer, err)
	}
	glog.Infof("vnc: %s connected, desktop %dx%d", peer, c.screen.Dimensions().W, c.screen.Dimensions().H)

	defer func() {
		glog.V(1).Infof("vnc: %s closed, %v", peer, c.metrics.Snapshot())
	}()

	for {
		msg, err := c.msgs.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading message from %s: %w", peer, err)
		}
		if err := c.handle(msg); err != nil {
			return fmt.Errorf("handling message from %s: %w", peer, err)
		}
	}
}

// handle updates connection state or renders a frame in response to one
// parsed ClientMessage, per §4.5. Any message type not named below is
// silently discarded.
func (c *Conn) handle(msg ClientMessage) error {
	switch m := msg.(type) {
	case SetPixelFormatMsg:
		if !m.Format.TrueColour {
			return &UnsupportedError{"client requested a non-true-colour pixel format"}
		}
		c.format = m.Format
		glog.V(1).Infof("vnc: pixel format set: %+v", c.format)
	case SetEncodingsMsg:
		for _, e := range m.Encodings {
			c.encodings.Observe(e)
		}
		if c.encodings.SupportsZRLE() && c.zrleStream == nil {
			c.zrleStream = zrle.NewStream()
		}
		if c.encodings.SupportsCursor() {
			c.pointerOK = true
		}
	case FramebufferUpdateRequestMsg:
		if m.Incremental {
			// The scene never changes, so an incremental request is owed
			// nothing: no client holding frame n is missing information.
			return nil
		}
		return c.sendUpdate()
	default:
		// KeyEventMsg, PointerEventMsg, ClientCutTextMsg: parsed, discarded.
	}
	return nil
}

// sendUpdate renders and writes one FramebufferUpdate (§4.5, §6):
// the screen rectangle (ZRLE if negotiated, else Raw), followed by a
// Cursor rectangle if the client supports it and a cursor is configured.
func (c *Conn) sendUpdate() error {
	rect, err := c.renderScreen()
	if err != nil {
		return err
	}
	rects := []FrameRectangle{rect}

	if c.pointerOK && c.screen.HasCursor() {
		buf, ok, err := c.screen.DrawCursor(c.format)
		if err != nil {
			return err
		}
		if ok {
			rects = append(rects, NewCursorRectangle(c.screen.CursorSize(), buf))
		}
	}

	return c.writeFramebufferUpdate(rects)
}

func (c *Conn) renderScreen() (FrameRectangle, error) {
	size := c.screen.Dimensions()
	if c.zrleStream != nil {
		buf, err := c.screen.DrawZRLE(c.format, c.zrleStream)
		if err != nil {
			return FrameRectangle{}, err
		}
		return NewZRLERectangle(size, buf), nil
	}
	buf, err := c.screen.DrawRaw(c.format)
	if err != nil {
		return FrameRectangle{}, err
	}
	return NewRawRectangle(size, buf), nil
}

// writeFramebufferUpdate frames and writes a FramebufferUpdate message
// (§7.6.1): u8(0) u8(padding) u16be(nRects), then each rectangle as
// u16be(x) u16be(y) u16be(w) u16be(h) i32be(encoding) payload. ZRLE
// payloads are additionally prefixed with their u32be length.
func (c *Conn) writeFramebufferUpdate(rects []FrameRectangle) error {
	if err := binary.Write(c.bw, binary.BigEndian, uint8(serverMessageFramebufferUpdate)); err != nil {
		return &TransportError{err}
	}
	if err := binary.Write(c.bw, binary.BigEndian, uint8(0)); err != nil {
		return &TransportError{err}
	}
	if err := binary.Write(c.bw, binary.BigEndian, uint16(len(rects))); err != nil {
		return &TransportError{err}
	}

	for _, r := range rects {
		if err := c.writeRectangle(r); err != nil {
			return err
		}
	}

	if err := c.bw.Flush(); err != nil {
		return &TransportError{err}
	}
	c.metrics.FramesSent.Adjust(1)
	return nil
}

func (c *Conn) writeRectangle(r FrameRectangle) error {
	fields := []any{r.Position.X, r.Position.Y, r.Size.W, r.Size.H, r.Encoding.Code()}
	for _, f := range fields {
		if err := binary.Write(c.bw, binary.BigEndian, f); err != nil {
			return &TransportError{err}
		}
	}

	payload := r.Buf
	if r.Encoding.IsZRLE() {
		if err := binary.Write(c.bw, binary.BigEndian, uint32(len(payload))); err != nil {
			return &TransportError{err}
		}
	}
	n, err := c.bw.Write(payload)
	if err != nil {
		return &TransportError{err}
	}
	c.metrics.BytesSent.Adjust(int64(n))
	return nil
}
