package pskauth

import (
	"context"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"
)

func testKey() []byte {
	key := make([]byte, chacha20poly1305.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAuthDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	server, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := client.AuthData(ctx)
	if err != nil {
		t.Fatalf("AuthData: %v", err)
	}
	if err := server.Verify(ctx, data); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	otherKey := testKey()
	otherKey[0] ^= 0xFF
	server, err := New(ctx, otherKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := client.AuthData(ctx)
	if err != nil {
		t.Fatalf("AuthData: %v", err)
	}
	if err := server.Verify(ctx, data); err == nil {
		t.Fatal("expected verification failure with mismatched key")
	}
}

func TestVerifyRejectsReplay(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	server, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := client.AuthData(ctx)
	if err != nil {
		t.Fatalf("AuthData: %v", err)
	}
	if err := server.Verify(ctx, data); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if err := server.Verify(ctx, data); err == nil {
		t.Fatal("expected replay rejection on second Verify with same nonce")
	}
}

func TestVerifyRejectsShortData(t *testing.T) {
	ctx := context.Background()
	server, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := server.Verify(ctx, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for data shorter than a nonce")
	}
}

func TestID(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.ID() != MethodID {
		t.Errorf("ID: got 0x%02x, want 0x%02x", p.ID(), MethodID)
	}
}
