//go:build !unix

// File: rpc/listener_stub.go
// Author: momentics <momentics@gmail.com>

package rpc

import (
	"net"

	"github.com/deniskin82/goselector/selector"
)

// Listener is the selector-driven connection acceptor; unsupported on
// this platform (see listener_unix.go).
type Listener struct{}

// Listen is unavailable on non-unix platforms.
func Listen(sel *selector.Selector, srv *Server, address string) (*Listener, error) {
	return nil, selector.ErrUnsupportedPlatform
}

// Addr always returns nil on this platform.
func (l *Listener) Addr() net.Addr { return nil }

// Close is a no-op on this platform.
func (l *Listener) Close() error { return nil }
