package socks6

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

type handshakeFunc func(ctx context.Context) error

// ServerConfig configures a Listener.
type ServerConfig struct {
	HandshakeTimeout time.Duration
}

// Conn wraps a net.Conn with SOCKS6 handshake state. On the server
// side, Destination and RequestOptions are populated once the
// handshake completes.
type Conn struct {
	net.Conn

	serverConfig  *ServerConfig
	handshakeFn   handshakeFunc
	handshakeDone atomic.Bool

	request struct {
		cmd     socksproto.Command
		dst     socksaddr.Addr
		options []Option
	}

	// Destination is the address the client asked this server to
	// connect to. Valid only on the server side, after the handshake
	// completes.
	Destination socksaddr.Addr

	// RequestOptions holds every option the client sent with its
	// request, for inspection by the chain walker (stack hints,
	// session and idempotence options are forwarded verbatim).
	RequestOptions []Option
}

func (c *Conn) handshakeComplete() bool { return c.handshakeDone.Load() }
func (c *Conn) setHandshakeComplete()   { c.handshakeDone.Store(true) }

func (c *Conn) handshakeContext(ctx context.Context) error {
	if c.handshakeComplete() {
		return nil
	}
	if err := c.handshakeFn(ctx); err != nil {
		return err
	}
	c.setHandshakeComplete()
	c.Destination = c.request.dst
	c.RequestOptions = c.request.options
	return nil
}

// Listener accepts TCP connections and runs the SOCKS6 server
// handshake (request parse + authentication) on each before returning
// it; the caller still owes a reply (SendOpReply) once it knows
// whether the connect/chain-walk succeeded.
type Listener struct {
	net.Listener
	config *ServerConfig
}

func NewListener(laddr string, config *ServerConfig) (*Listener, error) {
	ln, err := net.Listen("tcp", laddr)
	if err != nil {
		return nil, err
	}
	return WrapListener(ln, config), nil
}

func WrapListener(inner net.Listener, config *ServerConfig) *Listener {
	return &Listener{Listener: inner, config: config}
}

func (l *Listener) Accept() (*Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return ServerHandshake(context.Background(), c, l.config)
}

// ServerHandshake runs the SOCKS6 server handshake over an
// already-accepted conn, bounded by cfg.HandshakeTimeout (default 30s).
// It is what Listener.Accept does internally; callers that demultiplex
// the SOCKS version themselves before knowing which protocol package
// to hand the conn to (see internal/handshake.Dispatch) call it
// directly instead of going through a protocol-specific Listener.
func ServerHandshake(ctx context.Context, c net.Conn, cfg *ServerConfig) (*Conn, error) {
	sc := buildServerConn(c, cfg)
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sc.handshakeContext(ctx); err != nil {
		sc.Close()
		return nil, err
	}
	return sc, nil
}

func buildServerConn(c net.Conn, cfg *ServerConfig) *Conn {
	sc := &Conn{Conn: c, serverConfig: cfg}
	sc.handshakeFn = sc.serverHandshake
	return sc
}
