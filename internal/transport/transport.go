// Package transport provides the listening side of the network layer.
// Transports decide how inbound control connections are accepted
// (socket options, keep-alive) independently of what the server does
// with them.
package transport

import (
	"context"
	"net"
)

// Listener opens the socket the server accepts control connections
// on.
type Listener interface {
	// Listen binds address and returns a ready net.Listener.
	Listen(ctx context.Context, address string) (net.Listener, error)
}
