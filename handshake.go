/*
The handshake, RFC 6143 §7.1-§7.3: ProtocolVersion, Security, then
ClientInit/ServerInit. Phases run in strict order over the freshly
accepted connection; any failure here is a HandshakeFailedError and the
connection is dropped, possibly after the server writes the RFC-defined
failure notification first.
*/
package vnc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/glog"
)

const (
	versionLen = 12

	v3_3 = "RFB 003.003\n"
	v3_7 = "RFB 003.007\n"
	v3_8 = "RFB 003.008\n"

	securityTypeNone = 1

	securityResultOK     = 0
	securityResultFailed = 1

	reasonUnsupportedVersion = "Unsupported protocol version"
	reasonUnsupportedSecType = "Unsupported security type"
)

// protocolVersionHandshake writes the server's supported version and reads
// the client's choice. On an unrecognised version it writes the RFC 6143
// §7.1.1 failure reason before returning.
func (c *Conn) protocolVersionHandshake() (string, error) {
	if _, err := c.bw.WriteString(v3_8); err != nil {
		return "", &HandshakeFailedError{Reason: "write server version", Err: err}
	}
	if err := c.bw.Flush(); err != nil {
		return "", &HandshakeFailedError{Reason: "flush server version", Err: err}
	}

	buf := make([]byte, versionLen)
	if _, err := io.ReadFull(c.br, buf); err != nil {
		return "", &HandshakeFailedError{Reason: "read client version", Err: err}
	}
	version := string(buf)

	switch version {
	case v3_3, v3_7, v3_8:
		glog.V(1).Infof("vnc: client requested %q", version)
		return version, nil
	default:
		if err := c.writeFailureReason(uint8(0), reasonUnsupportedVersion); err != nil {
			return "", &HandshakeFailedError{Reason: "write version failure reason", Err: err}
		}
		return "", &HandshakeFailedError{Reason: fmt.Sprintf("unsupported client version %q", version)}
	}
}

// writeFailureReason writes the RFC 6143 failure form shared by both the
// ProtocolVersion and (v3.8) Security phases: a status field (a u8 in the
// version phase, a u32 SecurityResult in the security phase), the reason's
// length, then the reason text.
func (c *Conn) writeFailureReason(status any, reason string) error {
	if err := binary.Write(c.bw, binary.BigEndian, status); err != nil {
		return err
	}
	if err := binary.Write(c.bw, binary.BigEndian, uint32(len(reason))); err != nil {
		return err
	}
	if _, err := c.bw.WriteString(reason); err != nil {
		return err
	}
	return c.bw.Flush()
}

// securityHandshake negotiates the "None" security type, the only one
// this server offers, per §7.1.2 and §A.1 (the v3.3 variant).
func (c *Conn) securityHandshake(version string) error {
	if version == v3_3 {
		// A.1: server unilaterally names the (only) security type; no
		// client reply, no SecurityResult.
		if err := binary.Write(c.bw, binary.BigEndian, uint32(securityTypeNone)); err != nil {
			return &HandshakeFailedError{Reason: "write v3.3 security type", Err: err}
		}
		return c.bw.Flush()
	}

	// v3.7/v3.8: two-way negotiation over a one-entry list.
	if _, err := c.bw.Write([]byte{1, securityTypeNone}); err != nil {
		return &HandshakeFailedError{Reason: "write security type list", Err: err}
	}
	if err := c.bw.Flush(); err != nil {
		return &HandshakeFailedError{Reason: "flush security type list", Err: err}
	}

	chosen := make([]byte, 1)
	if _, err := io.ReadFull(c.br, chosen); err != nil {
		return &HandshakeFailedError{Reason: "read chosen security type", Err: err}
	}

	if chosen[0] == securityTypeNone {
		if version == v3_8 {
			// §7.1.2: v3.8 always sends a SecurityResult after negotiation.
			if err := binary.Write(c.bw, binary.BigEndian, uint32(securityResultOK)); err != nil {
				return &HandshakeFailedError{Reason: "write SecurityResult OK", Err: err}
			}
			return c.bw.Flush()
		}
		return nil
	}

	if version == v3_8 {
		if err := c.writeFailureReason(uint32(securityResultFailed), reasonUnsupportedSecType); err != nil {
			return &HandshakeFailedError{Reason: "write SecurityResult failure", Err: err}
		}
	}
	return &HandshakeFailedError{Reason: fmt.Sprintf("client chose unsupported security type %d", chosen[0])}
}

// clientServerInit reads ClientInit (§7.3.1) and writes ServerInit
// (§7.3.2). The shared-flag is read and discarded: this server always
// shares its single immutable Screen with every client.
func (c *Conn) clientServerInit() error {
	shared := make([]byte, 1)
	if _, err := io.ReadFull(c.br, shared); err != nil {
		return &HandshakeFailedError{Reason: "read ClientInit shared-flag", Err: err}
	}

	size := c.screen.Dimensions()
	if err := binary.Write(c.bw, binary.BigEndian, size.W); err != nil {
		return &HandshakeFailedError{Reason: "write ServerInit width", Err: err}
	}
	if err := binary.Write(c.bw, binary.BigEndian, size.H); err != nil {
		return &HandshakeFailedError{Reason: "write ServerInit height", Err: err}
	}
	pf := c.format.Marshal()
	if _, err := c.bw.Write(pf[:]); err != nil {
		return &HandshakeFailedError{Reason: "write ServerInit pixel format", Err: err}
	}

	// §7.3.2: name_len is clamped into a u32, and the name truncated to it.
	const maxNameLen = 1<<32 - 1
	name := c.name
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if err := binary.Write(c.bw, binary.BigEndian, uint32(len(name))); err != nil {
		return &HandshakeFailedError{Reason: "write ServerInit name length", Err: err}
	}
	if _, err := c.bw.WriteString(name); err != nil {
		return &HandshakeFailedError{Reason: "write ServerInit name", Err: err}
	}
	return c.bw.Flush()
}

// handshake drives the three sub-phases in strict order.
func (c *Conn) handshake() error {
	version, err := c.protocolVersionHandshake()
	if err != nil {
		return err
	}
	if err := c.securityHandshake(version); err != nil {
		return err
	}
	return c.clientServerInit()
}
