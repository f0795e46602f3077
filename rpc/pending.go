// File: rpc/pending.go
// Author: momentics <momentics@gmail.com>
//
// PendingCall and the pendingQueue FIFO wrapping github.com/eapache/queue,
// a dependency the teacher declares in go.mod but never imports
// (DESIGN.md, rpc/pending.go entry). A pipelined HTTP/1.1
// connection must correlate each arriving response with the call that
// produced it in send order; queue.Queue's ring-buffer-backed FIFO is
// exactly that structure.

package rpc

import (
	"github.com/eapache/queue"
)

// PendingCall is a single in-flight JSON-RPC call awaiting its response.
// Grounded on cxxtools::RemoteResult<T>: a future-like handle signaled
// once, readable only after Done() closes.
type PendingCall struct {
	Method string
	Result []byte
	Err    error
	done   chan struct{}
}

func newPendingCall(method string) *PendingCall {
	return &PendingCall{Method: method, done: make(chan struct{})}
}

// Done returns a channel closed once the call completes (successfully or
// with an error).
func (c *PendingCall) Done() <-chan struct{} { return c.done }

func (c *PendingCall) complete(result []byte, err error) {
	c.Result = result
	c.Err = err
	close(c.done)
}

// pendingQueue is a thin type-safe FIFO over queue.Queue, which stores
// interface{} elements internally.
type pendingQueue struct {
	q *queue.Queue
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{q: queue.New()}
}

func (p *pendingQueue) push(c *PendingCall) { p.q.Add(c) }

func (p *pendingQueue) pop() (*PendingCall, bool) {
	if p.q.Length() == 0 {
		return nil, false
	}
	v := p.q.Peek()
	p.q.Remove()
	return v.(*PendingCall), true
}

func (p *pendingQueue) len() int { return p.q.Length() }
