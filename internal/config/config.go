// Package config provides configuration records for the proxy server
// and the client example, loadable either straight from CLI flags or
// from an optional TOML file.
package config

import (
	"errors"
	"sync"

	"github.com/seiftgord/gordasocks/internal/logger"
)

// Account holds one set of SOCKS5 username/password credentials.
type Account struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// timeoutConfig holds timeout settings shared by server and client
// configs, expressed in whole seconds on the wire.
type timeoutConfig struct {
	HandshakeTimeout int `toml:"handshakeTimeout"`
	DialTimeout      int `toml:"dialTimeout"`
}

var (
	serverConfig     *ServerConfig
	clientConfig     *ClientConfig
	serverConfigOnce sync.Once
	clientConfigOnce sync.Once
)

// GetServerConfig loads path as a TOML server config the first time
// it's called and memoizes the result for the process lifetime.
func GetServerConfig(path string) *ServerConfig {
	serverConfigOnce.Do(func() {
		var err error
		if serverConfig, err = loadServerConfig(path); err != nil {
			logger.Fatal(errors.Join(errInvalidConfigFile, err))
		}
	})
	return serverConfig
}

// GetClientConfig loads path as a TOML client config the first time
// it's called and memoizes the result for the process lifetime.
func GetClientConfig(path string) *ClientConfig {
	clientConfigOnce.Do(func() {
		var err error
		if clientConfig, err = loadClientConfig(path); err != nil {
			logger.Fatal(errors.Join(errInvalidConfigFile, err))
		}
	})
	return clientConfig
}
