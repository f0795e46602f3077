//go:build unix

// File: rpc/conn_unix.go
// Author: momentics <momentics@gmail.com>
//
// pipelinedConn is the server-side Selectable wrapping one accepted TCP
// connection. It is the composite, PollSize()==2 Selectable this repo
// adds to exercise the multi-slot slab-assignment path in Selector's
// rebuild stage: slot 0 is the connection socket, slot 1 is a private
// self-pipe that a per-request handler goroutine writes to once
// Server.dispatch (which runs the handler on core/concurrency.Executor)
// returns and the response is queued, without ever touching the reactor
// goroutine directly. This is the
// same self-pipe idiom selector/wake_unix.go uses for the core wake
// channel, scoped to a single connection instead of a whole Selector.

package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/deniskin82/goselector/selector"
)

type pipelinedConn struct {
	selector.BaseSelectable

	sel *selector.Selector
	srv *Server

	fd      int
	notifyR int
	notifyW int

	mu         sync.Mutex
	in         []byte
	out        []byte
	pendingOut []byte
	closed     bool

	// lastDone is closed by the handler of the most recently read request
	// once its response is queued; only the reactor goroutine touches it.
	lastDone chan struct{}

	slab []selector.PollFD
}

func newPipelinedConn(sel *selector.Selector, srv *Server, fd int) (*pipelinedConn, error) {
	var pipeFDs [2]int
	if err := unix.Pipe2(pipeFDs[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, &selector.IOError{Op: "pipe", Err: err}
	}

	c := &pipelinedConn{
		sel:     sel,
		srv:     srv,
		fd:      fd,
		notifyR: pipeFDs[0],
		notifyW: pipeFDs[1],
	}
	c.Init(c)
	sel.Add(c)
	return c, nil
}

// PollSize reports the connection socket plus the notify pipe.
func (c *pipelinedConn) PollSize() int { return 2 }

// InitializePoll fills both slab slots: slot 0 is the connection socket
// (write-interest added whenever buffered output is pending), slot 1 is
// the notify pipe's read end.
func (c *pipelinedConn) InitializePoll(slab []selector.PollFD) int {
	c.mu.Lock()
	ev := selector.Readable
	if len(c.out) > 0 {
		ev |= selector.Writable
	}
	c.mu.Unlock()

	slab[0] = selector.PollFD{Fd: c.fd, Events: ev}
	slab[1] = selector.PollFD{Fd: c.notifyR, Events: selector.Readable}
	c.slab = slab
	return 2
}

// CheckPollEvent services both slots: flush/read on the connection
// socket, and drain the notify pipe to pick up responses the worker pool
// finished computing since the last cycle.
func (c *pipelinedConn) CheckPollEvent() bool {
	if len(c.slab) < 2 {
		return false
	}
	connEv, notifyEv := c.slab[0], c.slab[1]

	if connEv.Errored() {
		c.teardown()
		return true
	}

	observed := false
	if connEv.Writable() {
		if c.flushWrite() {
			observed = true
		}
	}
	if connEv.Readable() {
		if c.readAndDispatch() {
			observed = true
		}
	}
	if notifyEv.Readable() {
		c.drainNotify()
		observed = true
	}
	return observed
}

func (c *pipelinedConn) flushWrite() bool {
	c.mu.Lock()
	out := c.out
	c.mu.Unlock()
	if len(out) == 0 {
		return false
	}

	wrote := false
	for len(out) > 0 {
		n, err := unix.Write(c.fd, out)
		if n > 0 {
			out = out[n:]
			wrote = true
			continue
		}
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			break
		}
		c.teardown()
		return true
	}

	c.mu.Lock()
	c.out = out
	drained := len(c.out) == 0
	c.mu.Unlock()
	if drained {
		c.sel.MarkDirty()
	}
	return wrote
}

func (c *pipelinedConn) readAndDispatch() bool {
	var buf [4096]byte
	read := false
	for {
		n, err := unix.Read(c.fd, buf[:])
		if n > 0 {
			c.mu.Lock()
			c.in = append(c.in, buf[:n]...)
			c.mu.Unlock()
			read = true
			continue
		}
		if n == 0 && err == nil {
			c.teardown()
			return true
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			break
		}
		c.teardown()
		return true
	}
	if !read {
		return false
	}

	for {
		req, consumed, err := c.tryParseOneRequest()
		if err != nil {
			c.teardown()
			return true
		}
		if consumed == 0 {
			break
		}
		c.mu.Lock()
		c.in = c.in[consumed:]
		c.mu.Unlock()
		prev := c.lastDone
		done := make(chan struct{})
		c.lastDone = done
		go c.handle(req, prev, done)
	}
	return true
}

// tryParseOneRequest attempts to parse exactly one complete HTTP/1.1
// request off the front of c.in, reusing net/http's own request reader
// exactly as Client.tryParseOne reuses ReadResponse.
func (c *pipelinedConn) tryParseOneRequest() (Request, int, error) {
	c.mu.Lock()
	in := c.in
	c.mu.Unlock()

	r := bufio.NewReader(bytes.NewReader(in))
	httpReq, err := http.ReadRequest(r)
	if err != nil {
		return Request{}, 0, nil // incomplete header: need more bytes
	}
	body, err := io.ReadAll(httpReq.Body)
	httpReq.Body.Close()
	if err != nil {
		return Request{}, 0, nil // incomplete body: need more bytes
	}

	consumed := len(in) - r.Buffered()

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, consumed, fmt.Errorf("rpc: invalid request body: %w", err)
	}
	return req, consumed, nil
}

// handle runs on its own goroutine, never the reactor goroutine:
// Server.dispatch blocks its caller on the worker pool, so calling it
// directly from readAndDispatch would stall Selector.Wait. Handlers of
// pipelined requests run concurrently, but each waits for prev (closed by
// the previous request's handle) before queueing its response, so
// responses are written in request order.
func (c *pipelinedConn) handle(req Request, prev <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	resp := c.srv.dispatch(req)
	body, err := json.Marshal(resp)
	if err != nil {
		body, _ = json.Marshal(Response{JSONRPC: protocolVersion, Error: NewFault(CodeInternalError, "failed to marshal response"), ID: req.ID})
	}
	httpResp := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: %d\r\nConnection: keep-alive\r\n\r\n%s",
		len(body), body)
	if prev != nil {
		<-prev
	}
	c.queueResponse([]byte(httpResp))
}

// queueResponse appends resp to the pending-output buffer and wakes the
// reactor through the notify pipe.
func (c *pipelinedConn) queueResponse(resp []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pendingOut = append(c.pendingOut, resp...)
	c.mu.Unlock()

	for {
		_, err := unix.Write(c.notifyW, []byte{1})
		if err == nil || errors.Is(err, unix.EAGAIN) {
			return
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return
	}
}

// drainNotify empties the notify pipe and promotes any responses queued
// by handler goroutines into the write buffer.
func (c *pipelinedConn) drainNotify() {
	var buf [64]byte
	for {
		n, err := unix.Read(c.notifyR, buf[:])
		if n > 0 {
			continue
		}
		if err != nil && errors.Is(err, unix.EINTR) {
			continue
		}
		break
	}

	c.mu.Lock()
	if len(c.pendingOut) > 0 {
		c.out = append(c.out, c.pendingOut...)
		c.pendingOut = nil
	}
	c.mu.Unlock()
	c.sel.MarkDirty()
}

// teardown detaches the connection from its Selector and releases both
// file descriptors. Safe to call more than once.
func (c *pipelinedConn) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.SetSelector(nil)
	unix.Close(c.fd)
	unix.Close(c.notifyR)
	unix.Close(c.notifyW)
}
