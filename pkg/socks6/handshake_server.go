package socks6

import (
	"context"
	"fmt"
	"io"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

// serverHandshake runs steps 1-2 of the server state machine (spec.md
// 4.4): read request, then authenticate. Connect/reply/relay happen
// one layer up, driven by whoever owns the outbound stream (direct
// dial or the chain walker).
func (c *Conn) serverHandshake(ctx context.Context) error {
	if err := c.serverReadRequest(ctx); err != nil {
		return fmt.Errorf("socks6 request: %w", err)
	}
	if err := c.serverAuthenticate(ctx); err != nil {
		return fmt.Errorf("socks6 authentication: %w", err)
	}
	return nil
}

func (c *Conn) serverReadRequest(ctx context.Context) error {
	hdr := make([]byte, requestFixedLen)
	if _, err := readFull(ctx, c.Conn, hdr); err != nil {
		return err
	}
	cmd, port, optLen, err := DecodeRequestHeader(hdr)
	if err != nil {
		return err
	}

	atyp := make([]byte, 1)
	if _, err := readFull(ctx, c.Conn, atyp); err != nil {
		return err
	}
	body, err := readAddrRemainder(ctx, c.Conn, atyp[0])
	if err != nil {
		return err
	}
	dst, _, err := decodeAddrBody(append(atyp, body...), port)
	if err != nil {
		return err
	}

	optBytes := make([]byte, optLen)
	if optLen > 0 {
		if _, err := readFull(ctx, c.Conn, optBytes); err != nil {
			return err
		}
	}
	opts, err := DecodeAll(optBytes)
	if err != nil {
		return err
	}

	c.request.cmd = cmd
	c.request.dst = dst
	c.request.options = opts

	if cmd != socksproto.Connect {
		_ = c.SendOpReply(ctx, OpReplyFrame{Code: socksproto.CommandNotSupported})
		return fmt.Errorf("%w: %s", errUnsupportedCommand, cmd)
	}
	return nil
}

// readAddrRemainder reads whatever bytes remain to complete an
// address body given its leading type tag (already read into atyp).
func readAddrRemainder(ctx context.Context, r io.Reader, atyp byte) ([]byte, error) {
	switch atyp {
	case socksaddr.TypeIPv4:
		buf := make([]byte, 4)
		_, err := readFull(ctx, r, buf)
		return buf, err
	case socksaddr.TypeIPv6:
		buf := make([]byte, 16)
		_, err := readFull(ctx, r, buf)
		return buf, err
	case socksaddr.TypeDomain:
		lenBuf := make([]byte, 1)
		if _, err := readFull(ctx, r, lenBuf); err != nil {
			return nil, err
		}
		buf := make([]byte, int(lenBuf[0]))
		if _, err := readFull(ctx, r, buf); err != nil {
			return nil, err
		}
		return append(lenBuf, buf...), nil
	default:
		return nil, fmt.Errorf("%w: unknown address type 0x%02x", socksaddr.ErrInvalidAddress, atyp)
	}
}

func (c *Conn) serverAuthenticate(ctx context.Context) error {
	methods, err := AdvertisedMethods(c.request.options)
	if err != nil {
		return err
	}
	offered := len(methods) == 0
	for _, m := range methods {
		if m == noAuthMethod {
			offered = true
			break
		}
	}
	if !offered {
		_ = c.sendAuthReply(ctx, AuthReplyFrame{Success: false})
		return errFurtherAuthRequired
	}
	return c.sendAuthReply(ctx, AuthReplyFrame{Success: true})
}

func (c *Conn) sendAuthReply(ctx context.Context, f AuthReplyFrame) error {
	buf, err := EncodeAuthReply(f)
	if err != nil {
		return err
	}
	_, err = writeAll(ctx, c.Conn, buf)
	return err
}

// SendOpReply sends the operation-reply frame, step 4 of the server
// state machine. Exported so the caller (direct-connect or chain
// walker) can report its own outcome once it knows one.
func (c *Conn) SendOpReply(ctx context.Context, f OpReplyFrame) error {
	if f.Bound.Type == 0 {
		f.Bound = socksaddr.IPv4(net4Zero, 0)
	}
	buf, err := EncodeOpReply(f)
	if err != nil {
		return err
	}
	_, err = writeAll(ctx, c.Conn, buf)
	return err
}

var net4Zero = []byte{0, 0, 0, 0}
