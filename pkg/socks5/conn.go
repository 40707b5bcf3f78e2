package socks5

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
)

// handshakeFunc performs either the client or the server half of the
// SOCKS5 handshake, selected at Conn construction time.
type handshakeFunc func(ctx context.Context) error

// Credentials maps username to password for RFC 1929 authentication.
type Credentials map[string]string

// ServerConfig configures a Listener.
type ServerConfig struct {
	Credentials      Credentials // nil => no-auth only
	HandshakeTimeout time.Duration
}

// Conn wraps a net.Conn with SOCKS5 handshake state. On the server
// side, Destination is populated once the handshake completes. On the
// client side, callers drive ClientHandshake directly instead of
// constructing a Conn.
type Conn struct {
	net.Conn

	serverConfig *ServerConfig
	handshakeFn  handshakeFunc
	handshakeDone atomic.Bool

	greeting struct {
		methods []byte
	}
	userPassAuth struct {
		username, password []byte
	}
	request struct {
		cmd byte
		dst socksaddr.Addr
	}

	// Destination is the address the client asked this server to
	// connect to. Valid only on the server side, after the handshake
	// completes.
	Destination socksaddr.Addr
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
	return nil
}

// Listener accepts TCP connections and runs the SOCKS5 server
// handshake on each before returning it.
type Listener struct {
	net.Listener
	config *ServerConfig
}

// NewListener starts a TCP listener on laddr and wraps it for SOCKS5.
func NewListener(laddr string, config *ServerConfig) (*Listener, error) {
	ln, err := net.Listen("tcp", laddr)
	if err != nil {
		return nil, err
	}
	return WrapListener(ln, config), nil
}

// WrapListener adapts an existing net.Listener for SOCKS5.
func WrapListener(inner net.Listener, config *ServerConfig) *Listener {
	return &Listener{Listener: inner, config: config}
}

// Accept waits for the next connection and performs the SOCKS5
// server handshake before returning it.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return ServerHandshake(context.Background(), c, l.config)
}

// ServerHandshake runs the SOCKS5 server handshake over an
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
