package socks5

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

// serverHandshake runs the greeting/method-selection exchange
// followed by the request/reply exchange, per spec.md 4.2.
func (c *Conn) serverHandshake(ctx context.Context) error {
	if err := c.serverGreeting(ctx); err != nil {
		return fmt.Errorf("socks5 greeting: %w", err)
	}
	if err := c.serverRequest(ctx); err != nil {
		return fmt.Errorf("socks5 request: %w", err)
	}
	return nil
}

func (c *Conn) serverGreeting(ctx context.Context) error {
	hdr := make([]byte, 2)
	if _, err := readFull(ctx, c.Conn, hdr); err != nil {
		return err
	}
	if hdr[0] != version {
		return fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, hdr[0])
	}
	nMethods := hdr[1]
	if nMethods == 0 {
		return errInvalidNMethodsValue
	}
	methods := make([]byte, nMethods)
	if _, err := readFull(ctx, c.Conn, methods); err != nil {
		return err
	}
	c.greeting.methods = methods

	best, err := c.selectMethod(methods)
	if err != nil {
		_, _ = c.Conn.Write([]byte{version, noAcceptableMethods})
		return err
	}
	if _, err := writeAll(ctx, c.Conn, []byte{version, best}); err != nil {
		return err
	}
	if best == userPassAuthMethod {
		return c.serverUserPassAuth(ctx)
	}
	return nil
}

// selectMethod picks the best method this server supports among the
// ones the client offered. Username/password is preferred whenever
// credentials are configured; no-auth is only acceptable when none
// are.
func (c *Conn) selectMethod(offered []byte) (byte, error) {
	var hasNoAuth, hasUserPass bool
	for _, m := range offered {
		switch m {
		case noAuthMethod:
			hasNoAuth = true
		case userPassAuthMethod:
			hasUserPass = true
		}
	}
	if c.serverConfig.Credentials != nil {
		if hasUserPass {
			return userPassAuthMethod, nil
		}
		return noAcceptableMethods, fmt.Errorf("%w: server requires auth, client offered %v", errNoAcceptableMethod, offered)
	}
	if hasNoAuth {
		return noAuthMethod, nil
	}
	return noAcceptableMethods, fmt.Errorf("%w: client offered %v", errNoAcceptableMethod, offered)
}

func (c *Conn) serverRequest(ctx context.Context) error {
	hdr := make([]byte, 4)
	if _, err := readFull(ctx, c.Conn, hdr); err != nil {
		return err
	}
	if hdr[0] != version {
		return fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, hdr[0])
	}
	if hdr[2] != 0x00 {
		return errInvalidReservedByte
	}
	cmd := hdr[1]

	addrBuf := make([]byte, 0, 32)
	addrBuf = append(addrBuf, hdr[3])
	dst, err := readAddrBody(ctx, c.Conn, addrBuf)
	if err != nil {
		_ = c.sendReply(ctx, socksproto.AddressTypeNotSupported, socksaddr.Addr{})
		return err
	}

	c.request.cmd = cmd
	c.request.dst = dst

	if socksproto.Command(cmd) != socksproto.Connect {
		_ = c.sendReply(ctx, socksproto.CommandNotSupported, socksaddr.Addr{})
		return fmt.Errorf("%w: 0x%02x", errUnsupportedCommand, cmd)
	}
	return nil
}

// SendReply sends the SOCKS5 reply frame to the client: version,
// code, reserved, bound address. Exported so the caller (which owns
// the outbound connect attempt) can report its own outcome.
func (c *Conn) SendReply(ctx context.Context, code socksproto.ReplyCode, bound socksaddr.Addr) error {
	return c.sendReply(ctx, code, bound)
}

func (c *Conn) sendReply(ctx context.Context, code socksproto.ReplyCode, bound socksaddr.Addr) error {
	if bound.Type == 0 {
		bound = socksaddr.IPv4(nil4, 0)
	}
	buf := []byte{version, byte(code), 0x00}
	buf, err := socksaddr.Encode(buf, bound)
	if err != nil {
		return err
	}
	_, err = writeAll(ctx, c.Conn, buf)
	return err
}

var nil4 = []byte{0, 0, 0, 0}

func readAddrBody(ctx context.Context, r io.Reader, prefix []byte) (socksaddr.Addr, error) {
	atyp := prefix[0]
	switch atyp {
	case socksaddr.TypeIPv4:
		body := make([]byte, 4+2)
		if _, err := readFull(ctx, r, body); err != nil {
			return socksaddr.Addr{}, err
		}
		addr, _, err := socksaddr.Decode(append(prefix, body...))
		return addr, err
	case socksaddr.TypeIPv6:
		body := make([]byte, 16+2)
		if _, err := readFull(ctx, r, body); err != nil {
			return socksaddr.Addr{}, err
		}
		addr, _, err := socksaddr.Decode(append(prefix, body...))
		return addr, err
	case socksaddr.TypeDomain:
		lenBuf := make([]byte, 1)
		if _, err := readFull(ctx, r, lenBuf); err != nil {
			return socksaddr.Addr{}, err
		}
		n := int(lenBuf[0])
		body := make([]byte, n+2)
		if _, err := readFull(ctx, r, body); err != nil {
			return socksaddr.Addr{}, err
		}
		full := append(prefix, lenBuf...)
		full = append(full, body...)
		addr, rest, err := socksaddr.Decode(full)
		if err != nil {
			return socksaddr.Addr{}, err
		}
		if len(rest) != 0 {
			return socksaddr.Addr{}, errors.New("trailing bytes after socks5 address")
		}
		return addr, nil
	default:
		return socksaddr.Addr{}, fmt.Errorf("%w: 0x%02x", socksaddr.ErrInvalidAddress, atyp)
	}
}
