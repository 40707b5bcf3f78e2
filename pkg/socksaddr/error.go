package socksaddr

import "errors"

// ErrInvalidAddress is returned by Decode/Encode when the address
// block is malformed: an unsupported type tag, a truncated body, or
// (for domains) a zero-length name.
var ErrInvalidAddress = errors.New("invalid socks address")
