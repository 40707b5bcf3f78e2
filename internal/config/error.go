package config

import "errors"

var (
	errInvalidConfigFile   = errors.New("invalid config file")
	errInvalidProtocol     = errors.New("protocol must be socks5 or socks6")
	errChainRequiresSocks6 = errors.New("chain is only valid when protocol is socks6")
	errInvalidChainURI     = errors.New("invalid chain uri")
)
