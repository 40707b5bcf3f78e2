// Package socksaddr implements the SOCKS address codec shared by the
// SOCKS5 and SOCKS6 protocol packages: IPv4, IPv6 and domain-name
// variants, each carrying a 16-bit port.
package socksaddr

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Address type tags, shared by SOCKS5 (RFC 1928 ATYP) and SOCKS6.
const (
	TypeIPv4   byte = 0x01
	TypeDomain byte = 0x03
	TypeIPv6   byte = 0x04
)

// Addr is a sum of IPv4, IPv6 and domain-name variants. Exactly one
// of IP or Name is set, discriminated by Type.
type Addr struct {
	Type byte
	IP   net.IP // 4 or 16 bytes, set when Type is TypeIPv4/TypeIPv6
	Name string // set when Type is TypeDomain
	Port uint16
}

// IPv4 builds an Addr from a 4-octet IPv4 address and a port.
func IPv4(ip net.IP, port uint16) Addr {
	return Addr{Type: TypeIPv4, IP: ip.To4(), Port: port}
}

// IPv6 builds an Addr from a 16-octet IPv6 address and a port.
func IPv6(ip net.IP, port uint16) Addr {
	return Addr{Type: TypeIPv6, IP: ip.To16(), Port: port}
}

// Domain builds an Addr from a domain name and a port.
func Domain(name string, port uint16) Addr {
	return Addr{Type: TypeDomain, Name: name, Port: port}
}

// String renders the address the way net.JoinHostPort would.
func (a Addr) String() string {
	host := a.Name
	if a.Type != TypeDomain {
		host = a.IP.String()
	}
	return net.JoinHostPort(host, fmt.Sprint(a.Port))
}

// Host returns the dialable host portion of the address (an IP
// literal string, or the raw domain name).
func (a Addr) Host() string {
	if a.Type == TypeDomain {
		return a.Name
	}
	return a.IP.String()
}

// Size returns the number of bytes Encode would produce.
func (a Addr) Size() int {
	switch a.Type {
	case TypeIPv4:
		return 1 + net.IPv4len + 2
	case TypeIPv6:
		return 1 + net.IPv6len + 2
	case TypeDomain:
		return 1 + 1 + len(a.Name) + 2
	default:
		return 0
	}
}

// Encode appends the wire form of a (tag, body, port) to dst and
// returns the extended slice.
func Encode(dst []byte, a Addr) ([]byte, error) {
	dst = append(dst, a.Type)
	switch a.Type {
	case TypeIPv4:
		ip := a.IP.To4()
		if ip == nil {
			return nil, fmt.Errorf("%w: IPv4 address has wrong length", ErrInvalidAddress)
		}
		dst = append(dst, ip...)
	case TypeIPv6:
		ip := a.IP.To16()
		if ip == nil || a.IP.To4() != nil {
			return nil, fmt.Errorf("%w: IPv6 address has wrong length", ErrInvalidAddress)
		}
		dst = append(dst, ip...)
	case TypeDomain:
		if len(a.Name) == 0 || len(a.Name) > 255 {
			return nil, fmt.Errorf("%w: domain name length %d out of range", ErrInvalidAddress, len(a.Name))
		}
		dst = append(dst, byte(len(a.Name)))
		dst = append(dst, a.Name...)
	default:
		return nil, fmt.Errorf("%w: unknown address type 0x%02x", ErrInvalidAddress, a.Type)
	}
	var port [2]byte
	binary.BigEndian.PutUint16(port[:], a.Port)
	dst = append(dst, port[:]...)
	return dst, nil
}

// Decode parses the wire form of an address from the front of src and
// returns the parsed address along with whatever bytes follow it.
func Decode(src []byte) (Addr, []byte, error) {
	if len(src) < 1 {
		return Addr{}, nil, fmt.Errorf("%w: empty buffer", ErrInvalidAddress)
	}
	atyp := src[0]
	rest := src[1:]

	var a Addr
	a.Type = atyp
	switch atyp {
	case TypeIPv4:
		if len(rest) < net.IPv4len {
			return Addr{}, nil, fmt.Errorf("%w: short IPv4 body", ErrInvalidAddress)
		}
		a.IP = append(net.IP(nil), rest[:net.IPv4len]...)
		rest = rest[net.IPv4len:]
	case TypeIPv6:
		if len(rest) < net.IPv6len {
			return Addr{}, nil, fmt.Errorf("%w: short IPv6 body", ErrInvalidAddress)
		}
		a.IP = append(net.IP(nil), rest[:net.IPv6len]...)
		rest = rest[net.IPv6len:]
	case TypeDomain:
		if len(rest) < 1 {
			return Addr{}, nil, fmt.Errorf("%w: missing domain length", ErrInvalidAddress)
		}
		n := int(rest[0])
		rest = rest[1:]
		if n == 0 {
			return Addr{}, nil, fmt.Errorf("%w: zero-length domain name", ErrInvalidAddress)
		}
		if len(rest) < n {
			return Addr{}, nil, fmt.Errorf("%w: short domain body", ErrInvalidAddress)
		}
		a.Name = string(rest[:n])
		rest = rest[n:]
	default:
		return Addr{}, nil, fmt.Errorf("%w: unknown address type 0x%02x", ErrInvalidAddress, atyp)
	}

	if len(rest) < 2 {
		return Addr{}, nil, fmt.Errorf("%w: missing port", ErrInvalidAddress)
	}
	a.Port = binary.BigEndian.Uint16(rest[:2])
	rest = rest[2:]

	return a, rest, nil
}
