package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
)

// ClientConfig describes the client example binary: it connects to a
// SOCKS proxy and asks it to reach a destination, optionally binding
// a specific local source port before dialing.
type ClientConfig struct {
	ProxyHost string        `toml:"proxyHost"`
	ProxyPort uint16        `toml:"proxyPort"`
	Protocol  string        `toml:"protocol"`
	DestHost  string        `toml:"destHost"`
	DestPort  uint16        `toml:"destPort"`
	SrcPort   uint16        `toml:"srcPort"`
	Timeout   timeoutConfig `toml:"timeout"`
}

// NewClientConfig builds and validates a ClientConfig directly from
// CLI flag values.
func NewClientConfig(proxyHost string, proxyPort uint16, protocol, destHost string, destPort, srcPort uint16) (*ClientConfig, error) {
	cfg := &ClientConfig{
		ProxyHost: proxyHost,
		ProxyPort: proxyPort,
		Protocol:  protocol,
		DestHost:  destHost,
		DestPort:  destPort,
		SrcPort:   srcPort,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaultValues()
	return cfg, nil
}

func loadClientConfig(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaultValues()
	return &cfg, nil
}

func (cc *ClientConfig) validate() error {
	var missingFields []string
	if len(cc.ProxyHost) < 1 {
		missingFields = append(missingFields, "proxyHost")
	}
	if cc.ProxyPort == 0 {
		missingFields = append(missingFields, "proxyPort")
	}
	if len(cc.DestHost) < 1 {
		missingFields = append(missingFields, "destHost")
	}
	if cc.DestPort == 0 {
		missingFields = append(missingFields, "destPort")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missingFields, ", "))
	}
	if cc.Protocol != "socks5" && cc.Protocol != "socks6" {
		return fmt.Errorf("%w: got %q", errInvalidProtocol, cc.Protocol)
	}
	return nil
}

func (cc *ClientConfig) applyDefaultValues() {
	if cc.Timeout.HandshakeTimeout == 0 {
		cc.Timeout.HandshakeTimeout = 30
	}
	if cc.Timeout.DialTimeout == 0 {
		cc.Timeout.DialTimeout = 10
	}
}

// ProxyAddr returns the host:port string of the upstream proxy.
func (cc *ClientConfig) ProxyAddr() string {
	return net.JoinHostPort(cc.ProxyHost, strconv.Itoa(int(cc.ProxyPort)))
}

// Destination returns the address the proxy should be asked to reach.
func (cc *ClientConfig) Destination() socksaddr.Addr {
	if ip := net.ParseIP(cc.DestHost); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return socksaddr.IPv4(ip4, cc.DestPort)
		}
		return socksaddr.IPv6(ip, cc.DestPort)
	}
	return socksaddr.Domain(cc.DestHost, cc.DestPort)
}

func (cc *ClientConfig) DialTimeout() time.Duration {
	return time.Duration(cc.Timeout.DialTimeout) * time.Second
}

func (cc *ClientConfig) HandshakeTimeout() time.Duration {
	return time.Duration(cc.Timeout.HandshakeTimeout) * time.Second
}
