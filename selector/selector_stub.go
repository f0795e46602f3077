//go:build !unix

// File: selector/selector_stub.go
// Author: momentics <momentics@gmail.com>
//
// Explicit unsupported-platform stub, grounded on the teacher's own
// reactor/reactor_stub.go convention: the poll(2)/self-pipe backend this
// package requires has no portable equivalent outside Unix, so
// NewSelector fails loudly rather than silently degrading.

package selector

type wakeChannel interface {
	readFD() int
	wake()
	drain() error
	close() error
}

func newWakeChannel() (wakeChannel, error) {
	return nil, ErrUnsupportedPlatform
}

func osPoll(fds []PollFD, timeoutMillis int) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func isEINTR(err error) bool { return false }
