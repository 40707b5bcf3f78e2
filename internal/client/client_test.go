package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/seiftgord/gordasocks/internal/config"
	"github.com/seiftgord/gordasocks/pkg/socks5"
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

func startSocks5Proxy(t *testing.T) string {
	t.Helper()
	ln, err := socks5.NewListener("127.0.0.1:0", &socks5.ServerConfig{HandshakeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			sc, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer sc.Close()
				ctx := context.Background()
				target, dialErr := net.Dial("tcp", sc.Destination.String())
				if dialErr != nil {
					_ = sc.SendReply(ctx, socksproto.MapDialError(dialErr), socksaddr.Addr{})
					return
				}
				defer target.Close()
				if err := sc.SendReply(ctx, socksproto.Success, socksaddr.IPv4(net.IPv4(0, 0, 0, 0), 0)); err != nil {
					return
				}
				go io.Copy(target, sc) //nolint:errcheck
				io.Copy(sc, target)    //nolint:errcheck
			}()
		}
	}()
	return ln.Addr().String()
}

func TestClientConnectSocks5(t *testing.T) {
	echoAddr := startEcho(t)
	proxyAddr := startSocks5Proxy(t)

	proxyHost, proxyPortStr, _ := net.SplitHostPort(proxyAddr)
	proxyPort, _ := strconv.Atoi(proxyPortStr)
	destHost, destPortStr, _ := net.SplitHostPort(echoAddr)
	destPort, _ := strconv.Atoi(destPortStr)

	cfg, err := config.NewClientConfig(proxyHost, uint16(proxyPort), "socks5", destHost, uint16(destPort), 0)
	if err != nil {
		t.Fatalf("NewClientConfig: %v", err)
	}
	cl := NewClient(cfg)

	conn, err := cl.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	msg := []byte("hello client")
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

func TestClientConnectRejectsUnsupportedProtocol(t *testing.T) {
	cfg := &config.ClientConfig{ProxyHost: "127.0.0.1", ProxyPort: 1, Protocol: "socks4", DestHost: "x", DestPort: 1}
	cl := NewClient(cfg)
	if _, err := cl.Connect(context.Background()); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}
