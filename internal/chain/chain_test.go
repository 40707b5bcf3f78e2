package chain

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/seiftgord/gordasocks/pkg/socks6"
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

// serveHop runs one SOCKS6 relay hop: on every accepted connection it
// dials the requested destination over plain TCP and splices bytes,
// exactly like an ordinary socks6 CONNECT server. The chain walker
// treats every hop this way, including intermediate ones whose
// "destination" is actually the next hop's address.
func serveHop(t *testing.T, ln *socks6.Listener) {
	t.Helper()
	go func() {
		for {
			sc, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer sc.Close()
				ctx := context.Background()
				target, err := net.Dial("tcp", sc.Destination.String())
				if err != nil {
					_ = sc.SendOpReply(ctx, socks6.OpReplyFrame{Code: socksproto.MapDialError(err)})
					return
				}
				defer target.Close()
				bound := socksaddr.IPv4(net.IPv4(0, 0, 0, 0), 0)
				if err := sc.SendOpReply(ctx, socks6.OpReplyFrame{Code: socksproto.Success, Bound: bound}); err != nil {
					return
				}
				go io.Copy(target, sc) //nolint:errcheck
				io.Copy(sc, target)    //nolint:errcheck
			}()
		}
	}()
}

func addrOf(t *testing.T, hostport string) socksaddr.Addr {
	t.Helper()
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi: %v", err)
	}
	return socksaddr.Domain(host, uint16(port))
}

func newHop(t *testing.T) *socks6.Listener {
	t.Helper()
	ln, err := socks6.NewListener("127.0.0.1:0", &socks6.ServerConfig{HandshakeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	serveHop(t, ln)
	return ln
}

func TestWalkTwoHops(t *testing.T) {
	echoAddr := startEcho(t)
	hop1 := newHop(t)
	hop2 := newHop(t)

	hops := []socksaddr.Addr{addrOf(t, hop1.Addr().String()), addrOf(t, hop2.Addr().String())}
	dst := addrOf(t, echoAddr)

	conn, res, err := Walk(context.Background(), hops, dst, nil, 2*time.Second)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	defer conn.Close()
	if res.Code != socksproto.Success {
		t.Fatalf("expected Success, got %v", res.Code)
	}

	msg := []byte("hello through the chain")
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

func TestWalkFailsOnUnreachableDestination(t *testing.T) {
	hop1 := newHop(t)

	hops := []socksaddr.Addr{addrOf(t, hop1.Addr().String())}
	dst := socksaddr.IPv4(net.IPv4(127, 0, 0, 1), 1)

	_, _, err := Walk(context.Background(), hops, dst, nil, 2*time.Second)
	if err == nil {
		t.Fatal("expected error walking to an unreachable destination")
	}
}

func TestWalkRejectsEmptyChain(t *testing.T) {
	_, _, err := Walk(context.Background(), nil, socksaddr.IPv4(net.IPv4(127, 0, 0, 1), 1), nil, time.Second)
	if err == nil {
		t.Fatal("expected error for an empty chain")
	}
}

func TestForwardableOptionsDropsAuth(t *testing.T) {
	opts := []socks6.Option{
		{Kind: socks6.KindStack},
		{Kind: socks6.KindAuthMethodAdvertisement},
		{Kind: socks6.KindAuthMethodSelection},
		{Kind: socks6.KindAuthData},
		{Kind: socks6.KindSessionRequest},
		{Kind: socks6.KindIdempotenceRequest},
	}
	got := ForwardableOptions(opts)
	if len(got) != 3 {
		t.Fatalf("got %d options, want 3: %+v", len(got), got)
	}
	for _, o := range got {
		switch o.Kind {
		case socks6.KindAuthMethodAdvertisement, socks6.KindAuthMethodSelection, socks6.KindAuthData:
			t.Errorf("authentication option %v leaked through", o.Kind)
		}
	}
}
