package socks6

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/seiftgord/gordasocks/internal/protoerrors"
	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

// Dialer connects to a destination through a single upstream SOCKS6
// proxy. The chain walker builds one Dialer per hop.
type Dialer struct {
	ProxyAddr string
	Timeout   time.Duration
}

// Dial opens a TCP connection to d.ProxyAddr and performs a client
// handshake requesting a CONNECT to dst, propagating extraOptions
// (e.g. stack/session/idempotence options forwarded by a chain
// walker) verbatim alongside the no-auth advertisement. It returns
// the tunnelled connection and the server's operation-reply options.
func (d *Dialer) Dial(ctx context.Context, dst socksaddr.Addr, extraOptions []Option) (net.Conn, ClientHandshakeResult, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.ProxyAddr)
	if err != nil {
		return nil, ClientHandshakeResult{}, err
	}
	res, err := ClientHandshake(ctx, conn, dst, extraOptions)
	if err != nil {
		conn.Close()
		return nil, res, err
	}
	return conn, res, nil
}

// ClientHandshakeResult carries the server-provided outcome of a
// client-side SOCKS6 handshake.
type ClientHandshakeResult struct {
	Code    socksproto.ReplyCode
	Bound   socksaddr.Addr
	Options []Option
}

// ClientHandshake runs the client-side state machine (spec.md 4.4)
// over an already-connected stream: send request (Connect, dst,
// {0x00} advertisement plus extraOptions), read authentication-reply,
// read operation-reply. On success it returns the operation-reply's
// options.
func ClientHandshake(ctx context.Context, conn net.Conn, dst socksaddr.Addr, extraOptions []Option) (ClientHandshakeResult, error) {
	opts := append([]Option{}, NewAuthMethodAdvertisement([]byte{noAuthMethod})...)
	opts = append(opts, extraOptions...)

	reqBytes, err := EncodeRequest(RequestFrame{
		Command: socksproto.Connect,
		Dest:    dst,
		Options: opts,
	})
	if err != nil {
		return ClientHandshakeResult{}, err
	}
	if _, err := writeAll(ctx, conn, reqBytes); err != nil {
		return ClientHandshakeResult{}, err
	}

	authHdr := make([]byte, 4)
	if _, err := readFull(ctx, conn, authHdr); err != nil {
		return ClientHandshakeResult{}, err
	}
	success, authOptLen, err := DecodeAuthReplyHeader(authHdr)
	if err != nil {
		return ClientHandshakeResult{}, err
	}
	if authOptLen > 0 {
		discard := make([]byte, authOptLen)
		if _, err := readFull(ctx, conn, discard); err != nil {
			return ClientHandshakeResult{}, err
		}
	}
	if !success {
		return ClientHandshakeResult{}, errFurtherAuthRequired
	}

	replyHdr := make([]byte, 2)
	if _, err := readFull(ctx, conn, replyHdr); err != nil {
		return ClientHandshakeResult{}, err
	}
	if replyHdr[0] != version {
		return ClientHandshakeResult{}, fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, replyHdr[0])
	}
	code := socksproto.ReplyCode(replyHdr[1])

	// The operation-reply carries its bound address in the ordinary
	// socksaddr wire form (type, body, port), unlike the request
	// frame's split layout.
	atyp := make([]byte, 1)
	if _, err := readFull(ctx, conn, atyp); err != nil {
		return ClientHandshakeResult{}, err
	}
	body, err := readAddrRemainder(ctx, conn, atyp[0])
	if err != nil {
		return ClientHandshakeResult{}, err
	}
	portBuf := make([]byte, 2)
	if _, err := readFull(ctx, conn, portBuf); err != nil {
		return ClientHandshakeResult{}, err
	}
	boundPort := uint16(portBuf[0])<<8 | uint16(portBuf[1])
	bound, _, err := decodeAddrBody(append(atyp, body...), boundPort)
	if err != nil {
		return ClientHandshakeResult{}, err
	}

	optLenBuf := make([]byte, 2)
	if _, err := readFull(ctx, conn, optLenBuf); err != nil {
		return ClientHandshakeResult{}, err
	}
	optLen := uint16(optLenBuf[0])<<8 | uint16(optLenBuf[1])
	optBytes := make([]byte, optLen)
	if optLen > 0 {
		if _, err := readFull(ctx, conn, optBytes); err != nil {
			return ClientHandshakeResult{}, err
		}
	}
	replyOpts, err := DecodeAll(optBytes)
	if err != nil {
		return ClientHandshakeResult{}, err
	}

	res := ClientHandshakeResult{Code: code, Bound: bound, Options: replyOpts}
	if code != socksproto.Success {
		return res, protoerrors.NewProtocolReplyError(code)
	}
	return res, nil
}
