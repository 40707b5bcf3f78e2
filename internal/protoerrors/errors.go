// Package protoerrors collects the error taxonomy shared by the
// SOCKS5/SOCKS6 codecs, the handshake engines and the chain walker.
// It is the generalized successor to the teacher's
// internal/proxy_error and internal/shared_error packages: one
// sentinel set instead of two overlapping ones.
package protoerrors

import (
	"errors"
	"fmt"

	"github.com/seiftgord/gordasocks/pkg/socksaddr"
	"github.com/seiftgord/gordasocks/pkg/socksproto"
)

var (
	// ErrUnsupportedVersion is returned by the handshake dispatcher
	// when the first byte on an accepted stream is neither 0x05 nor
	// 0x06.
	ErrUnsupportedVersion = errors.New("unsupported socks version")

	// ErrInvalidAddress is re-exported for callers that only import
	// protoerrors; socksaddr.ErrInvalidAddress is the canonical value.
	ErrInvalidAddress = socksaddr.ErrInvalidAddress

	// ErrMalformedOption is returned when a SOCKS6 option's declared
	// length is less than 4 or not a multiple of 4.
	ErrMalformedOption = errors.New("malformed socks6 option")

	// ErrUnsupportedCommand names a request for any command other than
	// Connect. The socks5 and socks6 server handshakes report that case
	// with their own package-level errors rather than this value.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrAuthenticationFailed names the case where a peer's offered
	// authentication methods do not intersect the methods this side
	// supports. The socks5 and socks6 handshakes report that case with
	// their own package-level errors rather than this value.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTrailingOptionBytes is returned when bytes remain in a
	// SOCKS6 options block after decoding its declared length.
	ErrTrailingOptionBytes = errors.New("trailing bytes after socks6 options block")

	// ErrCancelled names a handshake or relay aborted by context
	// cancellation. The handshakes and the relay return the context's
	// own error (ctx.Err()) in that case, not this value.
	ErrCancelled = errors.New("cancelled")
)

// ProtocolReplyError wraps a non-Success reply code returned by a
// remote peer (a proxy server this process dialed as a client).
type ProtocolReplyError struct {
	Code socksproto.ReplyCode
}

func (e *ProtocolReplyError) Error() string {
	return fmt.Sprintf("remote replied with non-success code %d (%s)", e.Code, e.Code)
}

// NewProtocolReplyError builds a *ProtocolReplyError, or nil if code
// is Success.
func NewProtocolReplyError(code socksproto.ReplyCode) error {
	if code == socksproto.Success {
		return nil
	}
	return &ProtocolReplyError{Code: code}
}

// ChainFailureError wraps the failure of one hop in a chain walk with
// the index of the failing hop (0-based, into the configured chain).
type ChainFailureError struct {
	HopIndex int
	Err      error
}

func (e *ChainFailureError) Error() string {
	return fmt.Sprintf("chain hop %d failed: %v", e.HopIndex, e.Err)
}

func (e *ChainFailureError) Unwrap() error { return e.Err }

// NewChainFailureError wraps err (which may itself be a
// *ProtocolReplyError) with the index of the hop that produced it.
func NewChainFailureError(hopIndex int, err error) error {
	return &ChainFailureError{HopIndex: hopIndex, Err: err}
}

// ReplyCodeFor maps an error produced during a handshake or chain
// walk to the reply code that should be sent back to the original
// client. A *ProtocolReplyError or *ChainFailureError wrapping one
// is forwarded verbatim; anything else collapses to GeneralFailure,
// including a chain walk's failure to dial its first hop. Direct-dial
// failures are mapped by socksproto.MapDialError at their call sites
// and do not pass through here.
func ReplyCodeFor(err error) socksproto.ReplyCode {
	var replyErr *ProtocolReplyError
	if errors.As(err, &replyErr) {
		return replyErr.Code
	}
	var chainErr *ChainFailureError
	if errors.As(err, &chainErr) {
		return ReplyCodeFor(chainErr.Err)
	}
	return socksproto.GeneralFailure
}
