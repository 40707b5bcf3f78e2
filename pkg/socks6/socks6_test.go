package socks6

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

func startEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn) //nolint:errcheck
			}()
		}
	}()
	return ln.Addr().String()
}

func serveOnce(t *testing.T, ln *Listener) {
	t.Helper()
	go func() {
		sc, err := ln.Accept()
		if err != nil {
			return
		}
		defer sc.Close()

		ctx := context.Background()
		target, dialErr := net.Dial("tcp", sc.Destination.String())
		if dialErr != nil {
			_ = sc.SendOpReply(ctx, OpReplyFrame{Code: socksproto.MapDialError(dialErr)})
			return
		}
		defer target.Close()
		bound := socksaddr.IPv4(net.IPv4(0, 0, 0, 0), 0)
		if err := sc.SendOpReply(ctx, OpReplyFrame{Code: socksproto.Success, Bound: bound}); err != nil {
			return
		}

		go io.Copy(target, sc) //nolint:errcheck
		io.Copy(sc, target)    //nolint:errcheck
	}()
}

func TestClientServerRoundTrip(t *testing.T) {
	echoAddr := startEcho(t)

	ln, err := NewListener("127.0.0.1:0", &ServerConfig{HandshakeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer ln.Close()
	serveOnce(t, ln)

	host, portStr, _ := net.SplitHostPort(echoAddr)
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	d := &Dialer{ProxyAddr: ln.Addr().String(), Timeout: 2 * time.Second}
	conn, res, err := d.Dial(context.Background(), socksaddr.Domain(host, uint16(port)), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if res.Code != socksproto.Success {
		t.Fatalf("expected Success, got %v", res.Code)
	}

	msg := []byte("hello socks6")
	if _, err := conn.Write(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, len(msg))
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if string(buf) != string(msg) {
		t.Errorf("echo mismatch: got %q want %q", buf, msg)
	}
}

func TestServerRejectsUnreachableTarget(t *testing.T) {
	ln, err := NewListener("127.0.0.1:0", &ServerConfig{HandshakeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer ln.Close()
	serveOnce(t, ln)

	d := &Dialer{ProxyAddr: ln.Addr().String(), Timeout: 2 * time.Second}
	_, res, err := d.Dial(context.Background(), socksaddr.IPv4(net.IPv4(127, 0, 0, 1), 1), nil)
	if err == nil {
		t.Fatal("expected error connecting to unreachable port")
	}
	if res.Code == socksproto.Success {
		t.Errorf("expected non-success reply code, got %v", res.Code)
	}
}

func TestServerRejectsUnsupportedCommand(t *testing.T) {
	ln, err := NewListener("127.0.0.1:0", &ServerConfig{HandshakeTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		done <- err
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	f := RequestFrame{
		Command: socksproto.Bind,
		Dest:    socksaddr.IPv4(net.IPv4(127, 0, 0, 1), 80),
		Options: NewAuthMethodAdvertisement([]byte{0x00}),
	}
	buf, err := EncodeRequest(f)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected handshake error for BIND command")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake rejection")
	}
}

func TestServerRejectsAuthOnlyAdvertisement(t *testing.T) {
	ln, err := NewListener("127.0.0.1:0", &ServerConfig{HandshakeTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		done <- err
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	f := RequestFrame{
		Command: socksproto.Connect,
		Dest:    socksaddr.IPv4(net.IPv4(127, 0, 0, 1), 80),
		Options: NewAuthMethodAdvertisement([]byte{0x02}),
	}
	buf, err := EncodeRequest(f)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected authentication error when only 0x02 is offered")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake rejection")
	}
}
