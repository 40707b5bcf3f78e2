package socks5

import "errors"

var (
	errUnsupportedVersion     = errors.New("unsupported socks5 version")
	errInvalidNMethodsValue   = errors.New("invalid socks5 nmethods value")
	errNoAcceptableMethod     = errors.New("no acceptable socks5 auth method")
	errUnsupportedCommand     = errors.New("unsupported socks5 command")
	errInvalidReservedByte    = errors.New("invalid reserved byte in socks5 request")
	errAuthIncorrectUsername  = errors.New("socks5 username/password auth: incorrect username")
	errAuthIncorrectPassword  = errors.New("socks5 username/password auth: incorrect password")
	errUnsupportedAuthVersion = errors.New("unsupported socks5 username/password auth version")
)
