// Package main is the entry point for the proxy server binary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/seiftgord/gordasocks/internal/config"
	"github.com/seiftgord/gordasocks/internal/flags"
	"github.com/seiftgord/gordasocks/internal/logger"
	"github.com/seiftgord/gordasocks/internal/server"
)

const (
	exitOK        = 0
	exitConfigErr = 1
	exitBindErr   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	f, err := flags.ParseServerFlags(os.Args[1:])
	if err != nil {
		logger.Error("flag parse error: ", err)
		return exitConfigErr
	}

	var cfg *config.ServerConfig
	if f.Config != "" {
		cfg = config.GetServerConfig(f.Config)
	} else {
		cfg, err = config.NewServerConfig(f.Host, uint16(f.Port), f.Protocol, f.Chain, 0, 0)
		if err != nil {
			logger.Error("configuration error: ", err)
			return exitConfigErr
		}
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Error("configuration error: ", err)
		return exitConfigErr
	}

	if err := srv.Listen(); err != nil {
		logger.Error("bind failed: ", err)
		return exitBindErr
	}
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server stopped: ", err)
		return exitConfigErr
	}
	logger.Info("server shut down")
	return exitOK
}
