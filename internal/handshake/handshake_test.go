package handshake

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/seiftgord/gordasocks/internal/protoerrors"
)

func TestDispatchSOCKS5(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{0x05, 0x01, 0x00}) //nolint:errcheck

	ver, conn, err := Dispatch(context.Background(), server)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ver != SOCKS5 {
		t.Fatalf("version: got %v, want SOCKS5", ver)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if buf[0] != 0x05 || buf[1] != 0x01 || buf[2] != 0x00 {
		t.Errorf("peeked byte not replayed, got %v", buf)
	}
}

func TestDispatchSOCKS6(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{0x06, 0xAA}) //nolint:errcheck

	ver, conn, err := Dispatch(context.Background(), server)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ver != SOCKS6 {
		t.Fatalf("version: got %v, want SOCKS6", ver)
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if buf[0] != 0x06 || buf[1] != 0xAA {
		t.Errorf("peeked byte not replayed, got %v", buf)
	}
}

func TestDispatchRejectsUnknownVersion(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{0x04}) //nolint:errcheck

	_, _, err := Dispatch(context.Background(), server)
	if err == nil {
		t.Fatal("expected error for unrecognized version byte")
	}
	if !errors.Is(err, protoerrors.ErrUnsupportedVersion) {
		t.Errorf("got %v, want ErrUnsupportedVersion", err)
	}
}

func TestDispatchHonorsContextCancellation(t *testing.T) {
	_, server := net.Pipe()
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := Dispatch(ctx, server)
	if err == nil {
		t.Fatal("expected error when no byte arrives before the context deadline")
	}
}
