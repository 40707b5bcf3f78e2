package socks5

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

// Dialer connects to a destination through an upstream SOCKS5 proxy.
type Dialer struct {
	ProxyAddr string
	Timeout   time.Duration
}

// Dial opens a TCP connection to proxyAddr, performs the SOCKS5
// client handshake requesting a CONNECT to dst, and returns the
// resulting net.Conn ready for relaying.
func (d *Dialer) Dial(ctx context.Context, dst socksaddr.Addr) (net.Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.ProxyAddr)
	if err != nil {
		return nil, err
	}
	if err := ClientHandshake(ctx, conn, dst); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// ClientHandshake runs the greeting, request and reply exchange as
// described by the client-side mirror of the server state machine,
// over an already-established conn. Dial uses this internally; callers
// that need control over how conn was established (e.g. binding a
// specific local port) can call it directly.
func ClientHandshake(ctx context.Context, conn net.Conn, dst socksaddr.Addr) error {
	if _, err := writeAll(ctx, conn, []byte{version, 1, noAuthMethod}); err != nil {
		return err
	}

	sel := make([]byte, 2)
	if _, err := readFull(ctx, conn, sel); err != nil {
		return err
	}
	if sel[0] != version {
		return fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, sel[0])
	}
	if sel[1] != noAuthMethod {
		return fmt.Errorf("%w: proxy selected 0x%02x", errNoAcceptableMethod, sel[1])
	}

	req := []byte{version, byte(socksproto.Connect), 0x00}
	req, err := socksaddr.Encode(req, dst)
	if err != nil {
		return err
	}
	if _, err := writeAll(ctx, conn, req); err != nil {
		return err
	}

	replyHdr := make([]byte, 4)
	if _, err := readFull(ctx, conn, replyHdr); err != nil {
		return err
	}
	if replyHdr[0] != version {
		return fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, replyHdr[0])
	}
	code := socksproto.ReplyCode(replyHdr[1])

	addrBuf := make([]byte, 0, 32)
	addrBuf = append(addrBuf, replyHdr[3])
	if _, err := readAddrBody(ctx, conn, addrBuf); err != nil {
		return err
	}

	if code != socksproto.Success {
		return &replyError{code: code}
	}
	return nil
}

type replyError struct{ code socksproto.ReplyCode }

func (e *replyError) Error() string {
	return fmt.Sprintf("socks5 proxy replied with non-success code %d (%s)", e.code, e.code)
}

// ReplyCode returns the SOCKS5 reply code carried by err, if err was
// produced by a failed client handshake.
func ReplyCode(err error) (socksproto.ReplyCode, bool) {
	re, ok := err.(*replyError)
	if !ok {
		return 0, false
	}
	return re.code, true
}
