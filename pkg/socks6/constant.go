// Package socks6 implements the server and client sides of the SOCKS6
// protocol (draft-olteanu-intarea-socks-6-11): request/reply framing,
// the typed options codec, and authentication-method negotiation.
package socks6

const version byte = 0x06

// Authentication-reply type byte.
const (
	authReplySuccess        byte = 0x00
	authReplyFurtherAuthReq byte = 0x01
)

// noAuthMethod is the only authentication method this core selects on
// the data path.
const noAuthMethod byte = 0x00
