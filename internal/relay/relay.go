// Package relay splices two duplex streams together, copying bytes
// in both directions until either side is done.
package relay

import (
	"context"
	"io"
	"net"

	"golang.org/x/sync/errgroup"
)

// Stats reports how many bytes moved in each direction.
type Stats struct {
	AToB int64
	BToA int64
}

type halfCloser interface {
	CloseWrite() error
}

// Relay runs two concurrent copy tasks, A-read/B-write and
// B-read/A-write, until both finish. Whichever direction hits EOF or
// a write error first half-closes the opposite stream's write side,
// propagating the close across the tunnel, then waits for the other
// direction. The half-close happens only when that stream itself has
// a CloseWrite method (such as *net.TCPConn); a wrapper that embeds a
// net.Conn, such as *socks5.Conn or *socks6.Conn, has none, so its
// peer sees no EOF until Relay returns. Cancelling ctx forces both
// streams closed, unblocking any copy still in flight. Both streams
// are always fully closed by the time Relay returns.
func Relay(ctx context.Context, a, b net.Conn) (Stats, error) {
	var stats Stats
	var g errgroup.Group

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			a.Close()
			b.Close()
		case <-stop:
		}
	}()

	g.Go(func() error {
		n, err := io.Copy(b, a)
		stats.AToB = n
		halfClose(b)
		return err
	})
	g.Go(func() error {
		n, err := io.Copy(a, b)
		stats.BToA = n
		halfClose(a)
		return err
	})

	err := g.Wait()
	a.Close()
	b.Close()
	if err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}

func halfClose(conn net.Conn) {
	if hc, ok := conn.(halfCloser); ok {
		hc.CloseWrite()
	}
}
