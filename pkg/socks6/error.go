package socks6

import (
	"errors"

	"github.com/seiftgord/gordasocks/internal/protoerrors"
)

var (
	errUnsupportedVersion  = errors.New("unsupported socks6 version")
	errUnsupportedCommand  = errors.New("unsupported socks6 command")
	errFurtherAuthRequired = errors.New("socks6 peer requires further authentication")

	// ErrMalformedOption is returned when a decoded option's length
	// field is less than 4 or not a multiple of 4.
	ErrMalformedOption = protoerrors.ErrMalformedOption

	// ErrTrailingOptionBytes is returned when bytes remain after the
	// last fully-decoded option in a block.
	ErrTrailingOptionBytes = protoerrors.ErrTrailingOptionBytes
)
