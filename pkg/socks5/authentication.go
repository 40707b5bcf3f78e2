package socks5

import (
	"context"
	"fmt"
)

// serverUserPassAuth runs the RFC 1929 username/password negotiation
// that follows method selection when userPassAuthMethod was chosen.
func (c *Conn) serverUserPassAuth(ctx context.Context) error {
	if err := c.serverParseUserPassAuthHeaders(ctx); err != nil {
		return err
	}
	if err := c.authenticate(); err != nil {
		if _, sendErr := writeAll(ctx, c.Conn, []byte{userPassAuthVersion, userPassAuthFailure}); sendErr != nil {
			return fmt.Errorf("auth failed (%v), and failed to notify client: %w", err, sendErr)
		}
		return err
	}
	_, err := writeAll(ctx, c.Conn, []byte{userPassAuthVersion, userPassAuthSuccess})
	return err
}

func (c *Conn) serverParseUserPassAuthHeaders(ctx context.Context) error {
	hdr := make([]byte, 2)
	if _, err := readFull(ctx, c.Conn, hdr); err != nil {
		return err
	}
	if hdr[0] != userPassAuthVersion {
		return fmt.Errorf("%w: got 0x%02x", errUnsupportedAuthVersion, hdr[0])
	}
	username := make([]byte, hdr[1])
	if _, err := readFull(ctx, c.Conn, username); err != nil {
		return err
	}
	pLenBuf := make([]byte, 1)
	if _, err := readFull(ctx, c.Conn, pLenBuf); err != nil {
		return err
	}
	password := make([]byte, pLenBuf[0])
	if _, err := readFull(ctx, c.Conn, password); err != nil {
		return err
	}
	c.userPassAuth.username = username
	c.userPassAuth.password = password
	return nil
}

// authenticate checks the parsed username/password against the
// server's configured credentials.
func (c *Conn) authenticate() error {
	want, ok := c.serverConfig.Credentials[string(c.userPassAuth.username)]
	if !ok {
		return errAuthIncorrectUsername
	}
	if want != string(c.userPassAuth.password) {
		return errAuthIncorrectPassword
	}
	return nil
}
