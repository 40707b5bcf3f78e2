// Package socks5 implements the server and client sides of the SOCKS5
// protocol (RFC 1928), including RFC 1929 username/password
// authentication.
package socks5

const (
	version byte = 0x05

	noAuthMethod        byte = 0x00
	userPassAuthMethod  byte = 0x02
	noAcceptableMethods byte = 0xFF

	userPassAuthVersion  byte = 0x01
	userPassAuthSuccess  byte = 0x00
	userPassAuthFailure  byte = 0x01
)
