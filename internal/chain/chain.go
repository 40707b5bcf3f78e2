// Package chain walks a configured sequence of upstream SOCKS6 proxies,
// handshaking hop by hop until the final destination is reached.
package chain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/seiftgord/gordasocks/internal/protoerrors"
	"github.com/seiftgord/gordasocks/pkg/socks6"
	"github.com/seiftgord/gordasocks/pkg/socksaddr"
)

var errEmptyChain = errors.New("chain: no hops configured")

// Walk opens a TCP stream to hops[0] and client-handshakes against it
// with destination hops[1] (or dst if there is only one hop), then
// repeats over the resulting tunnel for every subsequent hop, ending
// with a handshake against the last hop requesting dst. extraOptions
// are forwarded verbatim at every hop on top of that hop's own {0x00}
// advertisement; callers passing through a downstream client's
// request options must strip authentication options first (see
// ForwardableOptions) since each hop negotiates {0x00} independently.
//
// On success it returns the fully tunnelled stream, ready for relay
// splicing, and the final hop's handshake result. On failure every
// stream opened so far is closed in reverse order and the error is a
// *protoerrors.ChainFailureError naming the 0-based hop that failed.
func Walk(ctx context.Context, hops []socksaddr.Addr, dst socksaddr.Addr, extraOptions []socks6.Option, timeout time.Duration) (net.Conn, socks6.ClientHandshakeResult, error) {
	if len(hops) == 0 {
		return nil, socks6.ClientHandshakeResult{}, errEmptyChain
	}

	var opened []net.Conn
	rollback := func() {
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i].Close()
		}
	}

	var conn net.Conn
	var res socks6.ClientHandshakeResult
	for i, hop := range hops {
		hopDest := dst
		if i < len(hops)-1 {
			hopDest = hops[i+1]
		}

		var err error
		if conn == nil {
			d := &socks6.Dialer{ProxyAddr: dialAddr(hop), Timeout: timeout}
			conn, res, err = d.Dial(ctx, hopDest, extraOptions)
			if conn != nil {
				opened = append(opened, conn)
			}
		} else {
			res, err = socks6.ClientHandshake(ctx, conn, hopDest, extraOptions)
		}
		if err != nil {
			rollback()
			return nil, socks6.ClientHandshakeResult{}, protoerrors.NewChainFailureError(i, err)
		}
	}
	return conn, res, nil
}

func dialAddr(a socksaddr.Addr) string {
	return fmt.Sprintf("%s:%d", a.Host(), a.Port)
}

// ForwardableOptions filters opts down to the kinds a chain walk may
// carry between hops verbatim (stack hints, session, idempotence).
// Authentication options (advertisement, selection, auth data) are
// never forwarded: each hop negotiates {0x00} independently, so a
// downstream client's own advertisement must not leak into the
// walker's outbound requests alongside its own.
func ForwardableOptions(opts []socks6.Option) []socks6.Option {
	var out []socks6.Option
	for _, o := range opts {
		switch o.Kind {
		case socks6.KindAuthMethodAdvertisement, socks6.KindAuthMethodSelection, socks6.KindAuthData:
			continue
		}
		out = append(out, o)
	}
	return out
}
