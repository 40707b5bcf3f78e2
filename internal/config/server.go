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

// ServerConfig is the resolved configuration for a proxy server: the
// protocol it handles on ingress and, for socks6, the upstream chain
// it walks before relaying.
type ServerConfig struct {
	Host        string        `toml:"host"`
	Port        uint16        `toml:"port"`
	Protocol    string        `toml:"protocol"`
	Chain       []string      `toml:"chain"`
	Credentials []Account     `toml:"credentials"`
	Timeout     timeoutConfig `toml:"timeout"`
}

// NewServerConfig builds and validates a ServerConfig directly from
// CLI flag values.
func NewServerConfig(host string, port uint16, protocol string, chain []string, handshakeTimeout, dialTimeout int) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Host:     host,
		Port:     port,
		Protocol: protocol,
		Chain:    chain,
		Timeout:  timeoutConfig{HandshakeTimeout: handshakeTimeout, DialTimeout: dialTimeout},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaultValues()
	return cfg, nil
}

func loadServerConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaultValues()
	return &cfg, nil
}

func (sc *ServerConfig) validate() error {
	var missingFields []string
	if len(sc.Host) < 1 {
		missingFields = append(missingFields, "host")
	}
	if sc.Port == 0 {
		missingFields = append(missingFields, "port")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missingFields, ", "))
	}

	if sc.Protocol != "socks5" && sc.Protocol != "socks6" {
		return fmt.Errorf("%w: got %q", errInvalidProtocol, sc.Protocol)
	}
	if sc.Protocol == "socks5" && len(sc.Chain) > 0 {
		return errChainRequiresSocks6
	}
	for _, uri := range sc.Chain {
		if _, err := ParseChainURI(uri); err != nil {
			return err
		}
	}
	for i, cred := range sc.Credentials {
		if len(cred.Username) < 1 {
			return fmt.Errorf("element at index %d has empty username in credentials", i)
		}
		if len(cred.Password) < 1 {
			return fmt.Errorf("element at index %d has empty password in credentials", i)
		}
	}
	return nil
}

func (sc *ServerConfig) applyDefaultValues() {
	if sc.Timeout.HandshakeTimeout == 0 {
		sc.Timeout.HandshakeTimeout = 30
	}
	if sc.Timeout.DialTimeout == 0 {
		sc.Timeout.DialTimeout = 10
	}
}

// ListenAddr returns the host:port string to pass to net.Listen.
func (sc *ServerConfig) ListenAddr() string {
	return net.JoinHostPort(sc.Host, strconv.Itoa(int(sc.Port)))
}

// HandshakeTimeout returns the configured handshake timeout as a
// time.Duration.
func (sc *ServerConfig) HandshakeTimeout() time.Duration {
	return time.Duration(sc.Timeout.HandshakeTimeout) * time.Second
}

// DialTimeout returns the configured outbound dial timeout as a
// time.Duration.
func (sc *ServerConfig) DialTimeout() time.Duration {
	return time.Duration(sc.Timeout.DialTimeout) * time.Second
}

// ChainHops parses sc.Chain into dialable addresses, in order.
func (sc *ServerConfig) ChainHops() ([]socksaddr.Addr, error) {
	if len(sc.Chain) == 0 {
		return nil, nil
	}
	hops := make([]socksaddr.Addr, 0, len(sc.Chain))
	for _, uri := range sc.Chain {
		hop, err := ParseChainURI(uri)
		if err != nil {
			return nil, err
		}
		hops = append(hops, hop)
	}
	return hops, nil
}
