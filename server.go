/*
Server is the listener-side collaborator spec.md names as out of scope
("TCP acceptance and per-connection task spawning... None of these shape
the design"). It carries no protocol logic: it only accepts connections
and spawns a goroutine per connection, mirroring bradfitz-rfbgo's
listen-accept-spawn main loop and the original implementation's
listener.accept()/tokio::spawn pairing.
*/
package vnc

import (
	"fmt"
	"net"

	"github.com/golang/glog"
)

// Server accepts RFB connections against a single shared Screen.
type Server struct {
	listener net.Listener
	screen   *Screen
	name     string
}

// NewServer wraps an already-bound listener. Binding is the listener's own
// concern and is left to the caller (typically cmd/vncdisplay's main).
func NewServer(listener net.Listener, screen *Screen, desktopName string) *Server {
	return &Server{listener: listener, screen: screen, name: desktopName}
}

// Serve accepts connections until the listener itself fails (e.g. it was
// closed). Each connection is handled by its own goroutine; a failure on
// one connection is logged and never stops the accept loop (§7).
func (s *Server) Serve() error {
	glog.Infof("vnc: listening on %s", s.listener.Addr())
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			return fmt.Errorf("vnc: accept: %w", err)
		}
		conn := newConn(nc, s.screen, s.name)
		go func() {
			if err := conn.serve(); err != nil {
				glog.Infof("vnc: connection ended: %v", err)
			}
		}()
	}
}

// Close releases the listener, unblocking a pending Serve's Accept call.
func (s *Server) Close() error {
	return s.listener.Close()
}
