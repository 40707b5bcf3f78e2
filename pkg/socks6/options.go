package socks6

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies a SOCKS6 option's type.
type Kind uint16

const (
	KindStack                        Kind = 1
	KindAuthMethodAdvertisement      Kind = 2
	KindAuthMethodSelection          Kind = 3
	KindAuthData                     Kind = 4
	KindSessionRequest               Kind = 5
	KindSessionID                    Kind = 6
	KindSessionOK                    Kind = 7
	KindSessionInvalid               Kind = 8
	KindSessionTeardown              Kind = 9
	KindIdempotenceRequest           Kind = 10
	KindIdempotenceSpend             Kind = 11
	KindIdempotenceAccepted          Kind = 12
	KindIdempotenceRejected          Kind = 13
)

const optionHeaderLen = 4
const maxOptionLen = 0xFFFF

// Option is a typed variant carrying a u16 kind and a kind-specific
// payload. Kinds this package does not interpret (Stack, Session*,
// Idempotence*, and anything future) round-trip as opaque payloads,
// preserving forward compatibility per the draft's option
// polymorphism.
type Option struct {
	Kind    Kind
	Payload []byte
}

// EncodeAll serializes opts in input order, padding each payload with
// zero bytes so every option's total length is a multiple of 4.
func EncodeAll(opts []Option) ([]byte, error) {
	var buf []byte
	for _, o := range opts {
		pad := (4 - (optionHeaderLen+len(o.Payload))%4) % 4
		total := optionHeaderLen + len(o.Payload) + pad
		if total > maxOptionLen {
			return nil, fmt.Errorf("%w: kind %d payload too large (%d bytes)", ErrMalformedOption, o.Kind, len(o.Payload))
		}
		var hdr [4]byte
		binary.BigEndian.PutUint16(hdr[0:2], uint16(o.Kind))
		binary.BigEndian.PutUint16(hdr[2:4], uint16(total))
		buf = append(buf, hdr[:]...)
		buf = append(buf, o.Payload...)
		buf = append(buf, make([]byte, pad)...)
	}
	return buf, nil
}

// DecodeAll parses a options block in full. It stops when buf is
// exhausted; any bytes left over that cannot form a complete option
// header and payload are reported as ErrTrailingOptionBytes, while a
// malformed length field within an option is ErrMalformedOption.
func DecodeAll(buf []byte) ([]Option, error) {
	var opts []Option
	rest := buf
	for len(rest) > 0 {
		if len(rest) < optionHeaderLen {
			return nil, fmt.Errorf("%w: %d bytes left", ErrTrailingOptionBytes, len(rest))
		}
		kind := binary.BigEndian.Uint16(rest[0:2])
		length := binary.BigEndian.Uint16(rest[2:4])
		if length < optionHeaderLen || length%4 != 0 {
			return nil, fmt.Errorf("%w: kind %d declares length %d", ErrMalformedOption, kind, length)
		}
		if int(length) > len(rest) {
			return nil, fmt.Errorf("%w: kind %d declares length %d, only %d bytes remain", ErrTrailingOptionBytes, kind, length, len(rest))
		}
		payload := append([]byte(nil), rest[optionHeaderLen:length]...)
		opts = append(opts, Option{Kind: Kind(kind), Payload: payload})
		rest = rest[length:]
	}
	return opts, nil
}

// Find returns the first option of the given kind.
func Find(opts []Option, kind Kind) (Option, bool) {
	for _, o := range opts {
		if o.Kind == kind {
			return o, true
		}
	}
	return Option{}, false
}

// FindAll returns every option of the given kind, in input order.
func FindAll(opts []Option, kind Kind) []Option {
	var out []Option
	for _, o := range opts {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// NewAuthMethodAdvertisement builds one or more
// AuthenticationMethodAdvertisement options covering methods. When
// the method set is large enough that a single option would exceed
// maxOptionLen, the set is chunked across multiple options; decoders
// union them back into one set via AdvertisedMethods.
func NewAuthMethodAdvertisement(methods []byte) []Option {
	// Largest 4-byte-aligned option length, minus the header and the
	// method-count field.
	const maxMethodsPerChunk = maxOptionLen&^3 - optionHeaderLen - 2
	if len(methods) == 0 {
		return []Option{buildAdvertisement(nil)}
	}
	var opts []Option
	for len(methods) > 0 {
		n := len(methods)
		if n > maxMethodsPerChunk {
			n = maxMethodsPerChunk
		}
		opts = append(opts, buildAdvertisement(methods[:n]))
		methods = methods[n:]
	}
	return opts
}

// buildAdvertisement lays out a single advertisement option's
// payload: a u16 method count (occupying the slot the draft reserves
// for an initial-data length, unused by this core since no
// authentication method defines piggybacked initial data here),
// followed by the packed method IDs, padded to a 4-byte boundary.
func buildAdvertisement(methods []byte) Option {
	payload := make([]byte, 2, 2+len(methods)+3)
	binary.BigEndian.PutUint16(payload, uint16(len(methods)))
	payload = append(payload, methods...)
	for (optionHeaderLen+len(payload))%4 != 0 {
		payload = append(payload, 0)
	}
	return Option{Kind: KindAuthMethodAdvertisement, Payload: payload}
}

// AdvertisedMethods unions the method IDs carried by every
// AuthenticationMethodAdvertisement option in opts, in the order
// encountered.
func AdvertisedMethods(opts []Option) ([]byte, error) {
	var methods []byte
	for _, o := range FindAll(opts, KindAuthMethodAdvertisement) {
		if len(o.Payload) < 2 {
			return nil, fmt.Errorf("%w: authentication advertisement payload too short", ErrMalformedOption)
		}
		count := binary.BigEndian.Uint16(o.Payload[0:2])
		if int(count) > len(o.Payload)-2 {
			return nil, fmt.Errorf("%w: authentication advertisement declares %d methods, only %d bytes follow", ErrMalformedOption, count, len(o.Payload)-2)
		}
		methods = append(methods, o.Payload[2:2+count]...)
	}
	return methods, nil
}
