// Package server wires the accept loop, upstream chain walk or direct
// dial, and relay together behind the protocol a ServerConfig selects.
package server

import (
	"context"
	"errors"
	"net"

	"github.com/seiftgord/gordasocks/internal/chain"
	"github.com/seiftgord/gordasocks/internal/config"
	"github.com/seiftgord/gordasocks/internal/handshake"
	"github.com/seiftgord/gordasocks/internal/logger"
	"github.com/seiftgord/gordasocks/internal/protoerrors"
	"github.com/seiftgord/gordasocks/internal/relay"
	"github.com/seiftgord/gordasocks/pkg/socks5"
	"github.com/seiftgord/gordasocks/pkg/socks6"
	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

var errUnsupportedProtocol = errors.New("server: unsupported protocol")

// Server accepts SOCKS connections on a single listening socket,
// demultiplexes the version byte, and relays connections speaking the
// configured protocol to their destination, optionally through an
// upstream SOCKS6 chain.
type Server struct {
	cfg       *config.ServerConfig
	listener  net.Listener
	chainHops []socksaddr.Addr
}

// NewServer validates cfg's chain URIs but does not bind a socket.
func NewServer(cfg *config.ServerConfig) (*Server, error) {
	if cfg.Protocol != "socks5" && cfg.Protocol != "socks6" {
		return nil, errUnsupportedProtocol
	}
	hops, err := cfg.ChainHops()
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, chainHops: hops}, nil
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return err
	}
	s.listener = ln
	logger.Info("server is listening on: ", s.cfg.ListenAddr())
	return nil
}

// Close releases the listening socket.
func (s *Server) Close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Start runs the accept loop until ctx is cancelled or the listener
// fails. Every accepted connection is first run through
// internal/handshake.Dispatch to peek its version byte; a connection
// speaking a version other than s.cfg.Protocol is closed without a
// reply, matching the unsupported-version handling spec.md 4.5/9.4
// describe for the dispatcher.
func (s *Server) Start(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	version, dc, err := handshake.Dispatch(ctx, conn)
	if err != nil {
		logger.Warn("dispatch failed: ", err)
		conn.Close()
		return
	}

	switch {
	case version == handshake.SOCKS5 && s.cfg.Protocol == "socks5":
		sc, err := socks5.ServerHandshake(ctx, dc, &socks5.ServerConfig{HandshakeTimeout: s.cfg.HandshakeTimeout()})
		if err != nil {
			logger.Warn("socks5: handshake failed: ", err)
			return
		}
		s.handleSocks5(ctx, sc)
	case version == handshake.SOCKS6 && s.cfg.Protocol == "socks6":
		sc, err := socks6.ServerHandshake(ctx, dc, &socks6.ServerConfig{HandshakeTimeout: s.cfg.HandshakeTimeout()})
		if err != nil {
			logger.Warn("socks6: handshake failed: ", err)
			return
		}
		s.handleSocks6(ctx, sc)
	default:
		logger.Warn("rejecting connection speaking version ", version, ", this listener serves ", s.cfg.Protocol)
		dc.Close()
	}
}

func (s *Server) handleSocks5(ctx context.Context, sc *socks5.Conn) {
	defer sc.Close()

	target, err := net.DialTimeout("tcp", sc.Destination.String(), s.cfg.DialTimeout())
	if err != nil {
		logger.Warn("socks5: dial ", sc.Destination.String(), " failed: ", err)
		_ = sc.SendReply(ctx, socksproto.MapDialError(err), socksaddr.Addr{})
		return
	}
	defer target.Close()

	if err := sc.SendReply(ctx, socksproto.Success, socksaddr.IPv4(net.IPv4zero, 0)); err != nil {
		logger.Warn("socks5: reply to client failed: ", err)
		return
	}

	stats, err := relay.Relay(ctx, sc, target)
	if err != nil {
		logger.Debug("socks5: relay to ", sc.Destination.String(), " ended: ", err)
	}
	logger.Info("socks5: relayed ", stats.AToB, " bytes up, ", stats.BToA, " bytes down for ", sc.Destination.String())
}

func (s *Server) handleSocks6(ctx context.Context, sc *socks6.Conn) {
	defer sc.Close()

	if len(s.chainHops) > 0 {
		s.handleSocks6Chained(ctx, sc)
		return
	}

	target, err := net.DialTimeout("tcp", sc.Destination.String(), s.cfg.DialTimeout())
	if err != nil {
		logger.Warn("socks6: dial ", sc.Destination.String(), " failed: ", err)
		_ = sc.SendOpReply(ctx, socks6.OpReplyFrame{Code: socksproto.MapDialError(err)})
		return
	}
	defer target.Close()

	bound := socksaddr.IPv4(net.IPv4zero, 0)
	if err := sc.SendOpReply(ctx, socks6.OpReplyFrame{Code: socksproto.Success, Bound: bound}); err != nil {
		logger.Warn("socks6: reply to client failed: ", err)
		return
	}

	stats, err := relay.Relay(ctx, sc, target)
	if err != nil {
		logger.Debug("socks6: relay to ", sc.Destination.String(), " ended: ", err)
	}
	logger.Info("socks6: relayed ", stats.AToB, " bytes up, ", stats.BToA, " bytes down for ", sc.Destination.String())
}

func (s *Server) handleSocks6Chained(ctx context.Context, sc *socks6.Conn) {
	forwarded := chain.ForwardableOptions(sc.RequestOptions)
	upstream, res, err := chain.Walk(ctx, s.chainHops, sc.Destination, forwarded, s.cfg.DialTimeout())
	if err != nil {
		logger.Warn("socks6: chain walk to ", sc.Destination.String(), " failed: ", err)
		_ = sc.SendOpReply(ctx, socks6.OpReplyFrame{Code: protoerrors.ReplyCodeFor(err)})
		return
	}
	defer upstream.Close()

	if err := sc.SendOpReply(ctx, socks6.OpReplyFrame{Code: res.Code, Bound: res.Bound, Options: res.Options}); err != nil {
		logger.Warn("socks6: reply to client failed: ", err)
		return
	}

	stats, err := relay.Relay(ctx, sc, upstream)
	if err != nil {
		logger.Debug("socks6: chained relay to ", sc.Destination.String(), " ended: ", err)
	}
	logger.Info("socks6: relayed ", stats.AToB, " bytes up, ", stats.BToA, " bytes down through ", len(s.chainHops), " hops for ", sc.Destination.String())
}
