package socks5

import (
	"context"
	"io"

	"github.com/seiftgord/gordasocks/internal/ioctx"
)

func readFull(ctx context.Context, r io.Reader, buf []byte) (int, error) {
	return ioctx.ReadFull(ctx, r, buf)
}

func writeAll(ctx context.Context, w io.Writer, buf []byte) (int, error) {
	return ioctx.Write(ctx, w, buf)
}
