package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
)

const defaultChainPort = 1080

// ParseChainURI parses a socks6://host[:port] upstream-proxy URI. Any
// scheme other than socks6 is a configuration error.
func ParseChainURI(raw string) (socksaddr.Addr, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return socksaddr.Addr{}, fmt.Errorf("%w: %v", errInvalidChainURI, err)
	}
	if u.Scheme != "socks6" {
		return socksaddr.Addr{}, fmt.Errorf("%w: scheme must be socks6, got %q", errInvalidChainURI, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return socksaddr.Addr{}, fmt.Errorf("%w: missing host in %q", errInvalidChainURI, raw)
	}

	port := defaultChainPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 0 || port > 0xFFFF {
			return socksaddr.Addr{}, fmt.Errorf("%w: invalid port in %q", errInvalidChainURI, raw)
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return socksaddr.IPv4(ip4, uint16(port)), nil
		}
		return socksaddr.IPv6(ip, uint16(port)), nil
	}
	return socksaddr.Domain(host, uint16(port)), nil
}
