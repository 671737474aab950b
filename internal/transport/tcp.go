package transport

import (
	"context"
	"net"
	"time"
)

// DefaultKeepAlive is the TCP keep-alive period for accepted
// connections.  A dead peer is detected by the kernel even when the
// idle limit is long.
const DefaultKeepAlive = 30 * time.Second

// TCPListener binds plain TCP sockets.
type TCPListener struct {
	// KeepAlive is the keep-alive period set on accepted connections.
	// Zero selects DefaultKeepAlive; negative disables keep-alive.
	KeepAlive time.Duration

	// NoDelay disables Nagle's algorithm on accepted connections so
	// short replies are not held back.
	NoDelay bool
}

// Listen binds address over TCP.
func (l *TCPListener) Listen(ctx context.Context, address string) (net.Listener, error) {
	ka := l.KeepAlive
	if ka == 0 {
		ka = DefaultKeepAlive
	}
	lc := net.ListenConfig{KeepAlive: ka}

	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if !l.NoDelay {
		return ln, nil
	}
	return &noDelayListener{Listener: ln}, nil
}

type noDelayListener struct {
	net.Listener
}

func (l *noDelayListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return c, nil
}
