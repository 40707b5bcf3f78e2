package socks6

import (
	"net"
	"testing"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

func TestEncodeRequestFieldOrder(t *testing.T) {
	f := RequestFrame{
		Command: socksproto.Connect,
		Dest:    socksaddr.IPv4(net.IPv4(127, 0, 0, 1), 8080),
		Options: []Option{{Kind: KindStack, Payload: []byte{1, 2, 3, 4}}},
	}
	buf, err := EncodeRequest(f)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if buf[0] != version {
		t.Errorf("byte 0: got 0x%02x, want version", buf[0])
	}
	if buf[1] != byte(socksproto.Connect) {
		t.Errorf("byte 1: got 0x%02x, want command", buf[1])
	}
	optLen := uint16(buf[2])<<8 | uint16(buf[3])
	if optLen != 8 {
		t.Errorf("options_length: got %d, want 8", optLen)
	}
	port := uint16(buf[4])<<8 | uint16(buf[5])
	if port != 8080 {
		t.Errorf("port: got %d, want 8080", port)
	}
	if buf[8] != socksaddr.TypeIPv4 {
		t.Errorf("address_type at offset 8: got 0x%02x, want IPv4 tag", buf[8])
	}
}

func TestRequestHeaderRoundTrip(t *testing.T) {
	f := RequestFrame{
		Command: socksproto.Connect,
		Dest:    socksaddr.Domain("example.com", 443),
		Options: NewAuthMethodAdvertisement([]byte{0x00}),
	}
	buf, err := EncodeRequest(f)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	cmd, port, optLen, err := DecodeRequestHeader(buf[:requestFixedLen])
	if err != nil {
		t.Fatalf("DecodeRequestHeader: %v", err)
	}
	if cmd != socksproto.Connect {
		t.Errorf("cmd: got %v, want Connect", cmd)
	}
	if port != 443 {
		t.Errorf("port: got %d, want 443", port)
	}
	rest := buf[requestFixedLen:]
	dst, rest, err := decodeAddrBody(rest, port)
	if err != nil {
		t.Fatalf("decodeAddrBody: %v", err)
	}
	if dst.Name != "example.com" || dst.Port != 443 {
		t.Errorf("dst: got %+v", dst)
	}
	if uint16(len(rest)) != optLen {
		t.Fatalf("remaining bytes %d != declared options_length %d", len(rest), optLen)
	}
	opts, err := DecodeAll(rest)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	methods, err := AdvertisedMethods(opts)
	if err != nil {
		t.Fatalf("AdvertisedMethods: %v", err)
	}
	if len(methods) != 1 || methods[0] != 0x00 {
		t.Errorf("methods: got %v, want [0x00]", methods)
	}
}

func TestOpReplyRoundTrip(t *testing.T) {
	f := OpReplyFrame{
		Code:  socksproto.Success,
		Bound: socksaddr.IPv4(net.IPv4(10, 0, 0, 1), 1080),
	}
	buf, err := EncodeOpReply(f)
	if err != nil {
		t.Fatalf("EncodeOpReply: %v", err)
	}
	if buf[0] != version || socksproto.ReplyCode(buf[1]) != socksproto.Success {
		t.Fatalf("unexpected op-reply header: %v", buf[:2])
	}
	addr, rest, err := socksaddr.Decode(buf[2:])
	if err != nil {
		t.Fatalf("socksaddr.Decode: %v", err)
	}
	if addr.Port != 1080 {
		t.Errorf("bound port: got %d, want 1080", addr.Port)
	}
	if len(rest) != 2 {
		t.Fatalf("expected exactly the 2-byte options_length field left, got %d bytes", len(rest))
	}
}

func TestAuthReplyRoundTrip(t *testing.T) {
	buf, err := EncodeAuthReply(AuthReplyFrame{Success: true})
	if err != nil {
		t.Fatalf("EncodeAuthReply: %v", err)
	}
	success, optLen, err := DecodeAuthReplyHeader(buf[:4])
	if err != nil {
		t.Fatalf("DecodeAuthReplyHeader: %v", err)
	}
	if !success || optLen != 0 {
		t.Errorf("got success=%v optLen=%d, want true/0", success, optLen)
	}
}
