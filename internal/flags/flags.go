// Package flags defines the command-line surfaces of the server and
// client example binaries. The two binaries accept different flag
// sets, so each gets its own parsing entry point instead of a single
// shared package-level flag set.
package flags

import (
	"flag"
	"fmt"
)

type chainList []string

func (c *chainList) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprint([]string(*c))
}

func (c *chainList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

// ServerFlags holds the parsed command-line arguments for the server
// binary.
type ServerFlags struct {
	Host     string
	Port     uint
	Protocol string
	Chain    []string
	Config   string
}

// ParseServerFlags parses args (typically os.Args[1:]) into ServerFlags.
func ParseServerFlags(args []string) (*ServerFlags, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	f := &ServerFlags{}
	var chain chainList
	fs.StringVar(&f.Host, "host", "0.0.0.0", "bind address")
	fs.UintVar(&f.Port, "port", 1080, "bind port")
	fs.StringVar(&f.Protocol, "protocol", "socks5", "protocol handled on ingress: socks5 or socks6")
	fs.Var(&chain, "chain", "upstream socks6 proxy uri, repeatable, ordered nearest-first (socks6 only)")
	fs.StringVar(&f.Config, "config", "", "path to a TOML config file; overrides the other flags when set")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Chain = chain
	return f, nil
}

// ClientFlags holds the parsed command-line arguments for the client
// example binary.
type ClientFlags struct {
	Host     string
	Port     uint
	Protocol string
	DestHost string
	DestPort uint
	SrcPort  uint
	Config   string
}

// ParseClientFlags parses args (typically os.Args[1:]) into ClientFlags.
func ParseClientFlags(args []string) (*ClientFlags, error) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	f := &ClientFlags{}
	fs.StringVar(&f.Host, "host", "127.0.0.1", "proxy address")
	fs.UintVar(&f.Port, "port", 1080, "proxy port")
	fs.StringVar(&f.Protocol, "protocol", "socks5", "proxy protocol: socks5 or socks6")
	fs.StringVar(&f.DestHost, "dest_host", "", "destination host to ask the proxy to reach")
	fs.UintVar(&f.DestPort, "dest_port", 0, "destination port")
	fs.UintVar(&f.SrcPort, "src_port", 0, "local source port to bind before dialing the proxy, 0 for any")
	fs.StringVar(&f.Config, "config", "", "path to a TOML config file; overrides the other flags when set")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
