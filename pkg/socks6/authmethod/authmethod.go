// Package authmethod declares the plugin surface for SOCKS6
// authentication methods beyond no-authentication. The core protocol
// state machine in pkg/socks6 only ever negotiates method 0x00; a
// caller that wants to offer something stronger wires one of these
// in front of serverAuthenticate/ClientHandshake itself, exchanging
// AuthenticationData options out of band.
package authmethod

import "context"

// AuthMethod identifies an authentication method by its wire ID.
type AuthMethod interface {
	ID() byte
}

// ServerAuthMethod verifies authentication data a client attached to
// its request (normally carried in an AuthenticationData option).
type ServerAuthMethod interface {
	AuthMethod
	Verify(ctx context.Context, data []byte) error
}

// ClientAuthMethod produces the authentication data a client attaches
// to its request for the method it selected.
type ClientAuthMethod interface {
	AuthMethod
	AuthData(ctx context.Context) ([]byte, error)
}

// NoAuth is the only method the core state machine selects itself.
type NoAuth struct{}

func (NoAuth) ID() byte { return 0x00 }

func (NoAuth) Verify(ctx context.Context, data []byte) error { return nil }

func (NoAuth) AuthData(ctx context.Context) ([]byte, error) { return nil, nil }
