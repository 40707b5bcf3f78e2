// Package handshake dispatches a freshly accepted connection to the
// SOCKS5 or SOCKS6 state machine by peeking its first byte.
package handshake

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/seiftgord/gordasocks/internal/ioctx"
	"github.com/seiftgord/gordasocks/internal/protoerrors"
)

// Version identifies the SOCKS version a stream declared in its first
// byte.
type Version byte

const (
	SOCKS5 Version = 0x05
	SOCKS6 Version = 0x06
)

// Dispatch reads the first byte of conn and reports which protocol
// version it names. The returned net.Conn replays that byte on its
// first Read, so the protocol handler sees the exact bytes the peer
// sent. An unrecognized version byte is reported as
// protoerrors.ErrUnsupportedVersion; per spec.md 4.5/9.4 the caller
// must close the connection in that case without writing any reply.
func Dispatch(ctx context.Context, conn net.Conn) (Version, net.Conn, error) {
	first := make([]byte, 1)
	if _, err := ioctx.ReadFull(ctx, conn, first); err != nil {
		return 0, nil, err
	}
	switch first[0] {
	case byte(SOCKS5), byte(SOCKS6):
		return Version(first[0]), newPrefixedConn(conn, first[0]), nil
	default:
		return 0, nil, fmt.Errorf("%w: first byte 0x%02x", protoerrors.ErrUnsupportedVersion, first[0])
	}
}

// prefixedConn is a net.Conn that replays a single pushed-back byte
// before resuming reads from the underlying connection.
type prefixedConn struct {
	net.Conn
	mu     sync.Mutex
	pushed []byte
}

func newPrefixedConn(c net.Conn, first byte) *prefixedConn {
	return &prefixedConn{Conn: c, pushed: []byte{first}}
}

func (p *prefixedConn) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.pushed) > 0 {
		n := copy(b, p.pushed)
		p.pushed = p.pushed[n:]
		p.mu.Unlock()
		return n, nil
	}
	p.mu.Unlock()
	return p.Conn.Read(b)
}
