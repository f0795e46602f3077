//go:build unix

// File: rpc/listener_unix.go
// Author: momentics <momentics@gmail.com>
//
// Listener is the selector-driven front door for Server: it registers
// the listening socket itself as a Selectable and accepts pending
// connections via raw unix.Accept4 instead of net.Listener.Accept, so
// that accepting new connections is driven by the same Selector.Wait
// loop as everything else rather than by Go's runtime netpoller.

package rpc

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"

	"github.com/deniskin82/goselector/selector"
)

// Listener accepts TCP connections for srv through sel.
type Listener struct {
	selector.BaseSelectable

	sel *selector.Selector
	srv *Server
	ln  net.Listener
	fd  int

	slab []selector.PollFD
}

// Listen binds address, registers the listening socket with sel, and
// begins accepting connections as sel.Wait is driven. Each accepted
// connection is registered with sel as a pipelinedConn.
func Listen(sel *selector.Selector, srv *Server, address string) (*Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	fd, err := rawNonblockingFD(ln)
	if err != nil {
		ln.Close()
		return nil, err
	}

	l := &Listener{sel: sel, srv: srv, ln: ln, fd: fd}
	l.Init(l)
	sel.Add(l)
	return l, nil
}

// Addr reports the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close detaches the listener from its Selector and closes the socket.
func (l *Listener) Close() error {
	l.SetSelector(nil)
	return l.ln.Close()
}

// PollSize always reports one slot: the listening socket.
func (l *Listener) PollSize() int { return 1 }

// InitializePoll fills the single slab slot with the listening socket,
// always interested in read-readiness (a pending connection).
func (l *Listener) InitializePoll(slab []selector.PollFD) int {
	slab[0] = selector.PollFD{Fd: l.fd, Events: selector.Readable}
	l.slab = slab
	return 1
}

// CheckPollEvent accepts every connection currently pending and
// registers each as a pipelinedConn with the same Selector.
func (l *Listener) CheckPollEvent() bool {
	if len(l.slab) == 0 {
		return false
	}
	pfd := l.slab[0]
	if pfd.Errored() || !pfd.Readable() {
		return false
	}

	accepted := false
	for {
		connFD, _, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			break // EAGAIN or any other error: no more pending connections
		}
		accepted = true
		if _, err := newPipelinedConn(l.sel, l.srv, connFD); err != nil {
			unix.Close(connFD)
		}
	}
	return accepted
}
