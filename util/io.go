package util

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// DefaultBufSize is the standard receive buffer size for control
// connections (64 KiB).
const DefaultBufSize = 64 * 1024

// IsHarmless returns true for errors that mean the peer went away or
// the connection was already torn down: the normal ways a session ends.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// IsDeadline reports whether err is a read/write deadline expiry.
func IsDeadline(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// CloseQuietly closes c and ignores "already closed" errors.  Any
// other close error is returned.
func CloseQuietly(c io.Closer) error {
	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil && !IsHarmless(err) {
		return err
	}
	return nil
}
