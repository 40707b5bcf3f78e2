// Package pskauth is an optional authmethod.AuthMethod built on a
// pre-shared key, reserved at method ID 0x80 in the private-use range
// so it never collides with a future standardized method. It is not
// wired into the default server or client handshake; a caller opts in
// by negotiating it explicitly and exchanging the resulting
// AuthenticationData option itself.
package pskauth

import (
	"bytes"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/seiftgord/gordasocks/pkg/socks6/authmethod"
)

// MethodID is PSKAuth's wire ID, in the 0x80-0xFF private-use range
// the draft reserves for implementation-specific methods.
const MethodID byte = 0x80

// challenge is the fixed plaintext a client must correctly seal and a
// server must correctly open for a handshake to succeed. It carries
// no information beyond "this peer holds the key".
var challenge = []byte("gordasocks-pskauth-challenge")

var _ authmethod.ClientAuthMethod = (*PSKAuth)(nil)
var _ authmethod.ServerAuthMethod = (*PSKAuth)(nil)

// PSKAuth authenticates a peer that holds a shared 32-byte key,
// sealing a fixed challenge with ChaCha20-Poly1305 and replay-guarding
// nonces for an hour.
type PSKAuth struct {
	aead   cipher.AEAD
	nonces *nonceCache
}

// New builds a PSKAuth from a 32-byte key. ctx governs the lifetime
// of the background nonce-cache cleanup routine.
func New(ctx context.Context, key []byte) (*PSKAuth, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonces := newNonceCache(time.Hour)
	nonces.startCleanupRoutine(ctx, 20*time.Minute)
	return &PSKAuth{aead: aead, nonces: nonces}, nil
}

func (p *PSKAuth) ID() byte { return MethodID }

// AuthData seals the challenge under a fresh nonce and returns
// nonce||ciphertext, suitable as an AuthenticationData option payload.
func (p *PSKAuth) AuthData(ctx context.Context) ([]byte, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := p.aead.Seal(nil, nonce, challenge, nil)
	return append(nonce, sealed...), nil
}

// Verify opens data as nonce||ciphertext and checks it against the
// fixed challenge, rejecting any nonce already seen.
func (p *PSKAuth) Verify(ctx context.Context, data []byte) error {
	nonceSize := p.aead.NonceSize()
	if len(data) < nonceSize {
		return errAuthDataTooShort
	}
	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]
	if p.nonces.Exists(nonce) {
		return errReplayDetected
	}
	plaintext, err := p.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return errAuthenticationFailed
	}
	if !bytes.Equal(plaintext, challenge) {
		return errAuthenticationFailed
	}
	p.nonces.Store(nonce)
	return nil
}
