// Package main is the entry point for the client example binary. It
// dials a SOCKS proxy, asks it to reach a destination, then pipes
// standard input and output through the resulting tunnel.
package main

import (
	"context"
	"io"
	"os"

	"github.com/seiftgord/gordasocks/internal/client"
	"github.com/seiftgord/gordasocks/internal/config"
	"github.com/seiftgord/gordasocks/internal/flags"
	"github.com/seiftgord/gordasocks/internal/logger"
)

const (
	exitOK        = 0
	exitConfigErr = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	f, err := flags.ParseClientFlags(os.Args[1:])
	if err != nil {
		logger.Error("flag parse error: ", err)
		return exitConfigErr
	}

	var cfg *config.ClientConfig
	if f.Config != "" {
		cfg = config.GetClientConfig(f.Config)
	} else {
		cfg, err = config.NewClientConfig(f.Host, uint16(f.Port), f.Protocol, f.DestHost, uint16(f.DestPort), uint16(f.SrcPort))
		if err != nil {
			logger.Error("configuration error: ", err)
			return exitConfigErr
		}
	}

	cl := client.NewClient(cfg)
	conn, err := cl.Connect(context.Background())
	if err != nil {
		logger.Error("connect failed: ", err)
		return exitConfigErr
	}
	defer conn.Close()

	logger.Info("tunnel established to ", cfg.DestHost)

	done := make(chan struct{})
	go func() {
		io.Copy(conn, os.Stdin) //nolint:errcheck
		close(done)
	}()
	io.Copy(os.Stdout, conn) //nolint:errcheck
	<-done

	return exitOK
}
