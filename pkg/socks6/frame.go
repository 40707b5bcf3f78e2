package socks6

import (
	"encoding/binary"
	"fmt"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

// Request frame layout (see the open-question decisions in SPEC_FULL.md):
//
//	version(1) | command(1) | options_length(2) | port(2) | padding(2) | address_type(1) | address_body(var) | options_block(options_length)
//
// The first six bytes are padded with two zero bytes so the address
// that follows always starts on a 4-byte boundary; draft-11 places
// port and options_length ahead of the address, unlike SOCKS5.
const requestFixedLen = 8

// RequestFrame is the SOCKS6 client request.
type RequestFrame struct {
	Command socksproto.Command
	Dest    socksaddr.Addr
	Options []Option
}

// EncodeRequest serializes f to wire form.
func EncodeRequest(f RequestFrame) ([]byte, error) {
	optBytes, err := EncodeAll(f.Options)
	if err != nil {
		return nil, err
	}
	if len(optBytes) > maxOptionLen {
		return nil, fmt.Errorf("%w: options block too large (%d bytes)", ErrMalformedOption, len(optBytes))
	}

	buf := make([]byte, requestFixedLen, requestFixedLen+f.Dest.Size()+len(optBytes))
	buf[0] = version
	buf[1] = byte(f.Command)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(optBytes)))
	binary.BigEndian.PutUint16(buf[4:6], f.Dest.Port)
	// buf[6:8] left as zero padding

	buf = append(buf, f.Dest.Type)
	body, err := encodeAddrBody(f.Dest)
	if err != nil {
		return nil, err
	}
	buf = append(buf, body...)
	buf = append(buf, optBytes...)
	return buf, nil
}

// DecodeRequestHeader parses the fixed 8-byte header, returning the
// command, port, declared options length and whether the caller still
// needs to read the address body and options block.
func DecodeRequestHeader(hdr []byte) (cmd socksproto.Command, port uint16, optLen uint16, err error) {
	if len(hdr) != requestFixedLen {
		return 0, 0, 0, fmt.Errorf("%w: short request header", socksaddr.ErrInvalidAddress)
	}
	if hdr[0] != version {
		return 0, 0, 0, fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, hdr[0])
	}
	cmd = socksproto.Command(hdr[1])
	optLen = binary.BigEndian.Uint16(hdr[2:4])
	port = binary.BigEndian.Uint16(hdr[4:6])
	return cmd, port, optLen, nil
}

// AuthReplyFrame is the server's authentication-reply.
type AuthReplyFrame struct {
	Success bool
	Options []Option
}

func EncodeAuthReply(f AuthReplyFrame) ([]byte, error) {
	optBytes, err := EncodeAll(f.Options)
	if err != nil {
		return nil, err
	}
	typ := authReplySuccess
	if !f.Success {
		typ = authReplyFurtherAuthReq
	}
	buf := make([]byte, 4, 4+len(optBytes))
	buf[0] = version
	buf[1] = typ
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(optBytes)))
	buf = append(buf, optBytes...)
	return buf, nil
}

func DecodeAuthReplyHeader(hdr []byte) (success bool, optLen uint16, err error) {
	if len(hdr) != 4 {
		return false, 0, fmt.Errorf("%w: short auth-reply header", socksaddr.ErrInvalidAddress)
	}
	if hdr[0] != version {
		return false, 0, fmt.Errorf("%w: got 0x%02x", errUnsupportedVersion, hdr[0])
	}
	switch hdr[1] {
	case authReplySuccess:
		success = true
	case authReplyFurtherAuthReq:
		success = false
	default:
		return false, 0, fmt.Errorf("%w: unknown auth-reply type 0x%02x", socksaddr.ErrInvalidAddress, hdr[1])
	}
	optLen = binary.BigEndian.Uint16(hdr[2:4])
	return success, optLen, nil
}

// OpReplyFrame is the server's operation-reply.
type OpReplyFrame struct {
	Code    socksproto.ReplyCode
	Bound   socksaddr.Addr
	Options []Option
}

func EncodeOpReply(f OpReplyFrame) ([]byte, error) {
	optBytes, err := EncodeAll(f.Options)
	if err != nil {
		return nil, err
	}
	buf := []byte{version, byte(f.Code)}
	buf, err = socksaddr.Encode(buf, f.Bound)
	if err != nil {
		return nil, err
	}
	var optLen [2]byte
	binary.BigEndian.PutUint16(optLen[:], uint16(len(optBytes)))
	buf = append(buf, optLen[:]...)
	buf = append(buf, optBytes...)
	return buf, nil
}

// encodeAddrBody appends the address-type tag and body (IP bytes or
// length-prefixed domain) of a, without its port — the SOCKS6 request
// frame carries the port in its own fixed field.
func encodeAddrBody(a socksaddr.Addr) ([]byte, error) {
	full, err := socksaddr.Encode(nil, a)
	if err != nil {
		return nil, err
	}
	return full[1 : len(full)-2], nil
}

// decodeAddrBody parses an address-type tag and body (no port) from
// the front of src, attaching port to the result, and returns the
// remaining bytes.
func decodeAddrBody(src []byte, port uint16) (socksaddr.Addr, []byte, error) {
	if len(src) < 1 {
		return socksaddr.Addr{}, nil, fmt.Errorf("%w: empty address", socksaddr.ErrInvalidAddress)
	}
	var bodyLen int
	switch src[0] {
	case socksaddr.TypeIPv4:
		bodyLen = 4
	case socksaddr.TypeIPv6:
		bodyLen = 16
	case socksaddr.TypeDomain:
		if len(src) < 2 {
			return socksaddr.Addr{}, nil, fmt.Errorf("%w: missing domain length", socksaddr.ErrInvalidAddress)
		}
		bodyLen = 1 + int(src[1])
	default:
		return socksaddr.Addr{}, nil, fmt.Errorf("%w: unknown address type 0x%02x", socksaddr.ErrInvalidAddress, src[0])
	}
	need := 1 + bodyLen
	if len(src) < need {
		return socksaddr.Addr{}, nil, fmt.Errorf("%w: short address body", socksaddr.ErrInvalidAddress)
	}
	fake := make([]byte, 0, need+2)
	fake = append(fake, src[:need]...)
	fake = append(fake, 0, 0)
	addr, _, err := socksaddr.Decode(fake)
	if err != nil {
		return socksaddr.Addr{}, nil, err
	}
	addr.Port = port
	return addr, src[need:], nil
}
