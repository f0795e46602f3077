// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package rpc implements a JSON-RPC 2.0 client and server running over
// HTTP/1.1, the worked protocol example named in spec.md §1. Server is a
// method registry served either as a stdlib net/http handler or through
// Listen on a selector.Selector; Client is the protocol engine this
// package drives through a selector.Selector — a single pipelined,
// non-blocking TCP connection registered as a Selectable, dispatching
// queued calls as the connection's raw file descriptor becomes
// read/write ready.
//
// Client.Go and every Selector operation touching it must be called from
// the same goroutine that runs Selector.Wait, mirroring the single
// cooperative thread the reactor itself requires (spec.md §5).
package rpc
