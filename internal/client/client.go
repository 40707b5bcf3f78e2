// Package client implements the example client binary: it dials a
// configured SOCKS proxy, asks it to reach a destination, and hands
// back the resulting tunnel for the caller to relay.
package client

import (
	"context"
	"errors"
	"net"

	"github.com/seiftgord/gordasocks/internal/config"
	"github.com/seiftgord/gordasocks/pkg/socks5"
	"github.com/seiftgord/gordasocks/pkg/socks6"
)

var errUnsupportedProtocol = errors.New("client: unsupported protocol")

// Client dials a proxy and performs a client-side handshake for a
// single destination.
type Client struct {
	cfg *config.ClientConfig
}

func NewClient(cfg *config.ClientConfig) *Client {
	return &Client{cfg: cfg}
}

// Connect opens the tunnel: it dials the proxy (optionally from the
// configured source port) and runs the client handshake for the
// configured destination, returning the established stream.
func (c *Client) Connect(ctx context.Context) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout())
	defer cancel()

	dialer := net.Dialer{}
	if c.cfg.SrcPort != 0 {
		dialer.LocalAddr = &net.TCPAddr{Port: int(c.cfg.SrcPort)}
	}

	switch c.cfg.Protocol {
	case "socks5":
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.ProxyAddr())
		if err != nil {
			return nil, err
		}
		if err := socks5.ClientHandshake(ctx, conn, c.cfg.Destination()); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	case "socks6":
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.ProxyAddr())
		if err != nil {
			return nil, err
		}
		if _, err := socks6.ClientHandshake(ctx, conn, c.cfg.Destination(), nil); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	default:
		return nil, errUnsupportedProtocol
	}
}
