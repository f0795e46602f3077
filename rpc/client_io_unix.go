//go:build unix

// File: rpc/client_io_unix.go
// Author: momentics <momentics@gmail.com>
//
// Raw, non-blocking read/write path for Client's connection descriptor,
// grounded on the same unix.Read/unix.Write/EAGAIN-drain idiom as
// selector/wake_unix.go.

package rpc

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/deniskin82/goselector/selector"
)

// InitializePoll fills the single slab slot with the connection's
// descriptor; the interest mask includes Writable whenever buffered
// output is pending.
func (c *Client) InitializePoll(slab []selector.PollFD) int {
	c.mu.Lock()
	ev := selector.Readable
	if len(c.out) > 0 {
		ev |= selector.Writable
	}
	c.mu.Unlock()

	slab[0] = selector.PollFD{Fd: c.fd, Events: ev}
	c.slab = slab
	return 1
}

// CheckPollEvent inspects the previously assigned slot, flushing pending
// writes and/or parsing arriving responses, and reports whether anything
// was observed.
func (c *Client) CheckPollEvent() bool {
	if len(c.slab) == 0 {
		return false
	}
	pfd := c.slab[0]

	if pfd.Errored() {
		c.failAll(errors.New("rpc: connection error"))
		return true
	}

	observed := false
	if pfd.Writable() {
		if c.flushWrite() {
			observed = true
		}
	}
	if pfd.Readable() {
		if c.readAndDispatch() {
			observed = true
		}
	}
	return observed
}

// flushWrite writes as much of the buffered outgoing bytes as the
// descriptor accepts without blocking. When the buffer drains to empty
// it marks the Selector dirty so the next rebuild drops write interest
// (otherwise poll(2) would report writable forever and spin the loop).
func (c *Client) flushWrite() bool {
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
		c.failAll(err)
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

// readAndDispatch drains the descriptor into the read buffer, then peels
// off and completes as many fully-buffered HTTP responses as available.
func (c *Client) readAndDispatch() bool {
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
			c.failAll(errorHangup)
			return true
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			break
		}
		c.failAll(err)
		return true
	}
	if !read {
		return false
	}

	for {
		resp, consumed, err := c.tryParseOne()
		if err != nil {
			c.failAll(err)
			return true
		}
		if consumed == 0 {
			break
		}
		c.mu.Lock()
		c.in = c.in[consumed:]
		c.mu.Unlock()

		call, ok := c.pending.pop()
		if !ok {
			continue // stray/unsolicited response: nothing to correlate it to
		}
		if resp.Error != nil {
			call.complete(nil, resp.Error)
		} else {
			call.complete(resp.Result, nil)
		}
	}
	return true
}

var errorHangup = errors.New("rpc: connection closed by peer")
