//go:build unix

// File: selector/poll_unix.go
// Author: momentics <momentics@gmail.com>
//
// osPoll binds the Selector's packed wait-vector to POSIX poll(2) via
// golang.org/x/sys/unix — the same module the teacher imports for
// reactor/reactor_linux.go, here driving unix.Poll instead of EpollWait
// (see SPEC_FULL.md §4 for why poll and not epoll: the spec's
// contiguous-slab-per-registrant model has no epoll equivalent).

package selector

import "golang.org/x/sys/unix"

// maxPollTimeout is the largest positive value representable in
// unix.Poll's int timeout parameter on every supported Unix target; the
// spec's finite timeout budget is clamped to this (§4.2).
const maxPollTimeout = int(^uint32(0) >> 1)

// osPoll invokes poll(2) over fds with the given millisecond timeout
// (Forever for no deadline). Returns the number of descriptors with a
// non-zero result mask, or an error (which may indicate EINTR — the
// caller is responsible for retry/timeout-deduction, see Selector.Wait).
func osPoll(fds []PollFD, timeoutMillis int) (int, error) {
	raw := make([]unix.PollFd, len(fds))
	for i, f := range fds {
		raw[i] = unix.PollFd{Fd: int32(f.Fd), Events: f.Events}
	}

	t := timeoutMillis
	if t == Forever {
		t = -1
	} else if t > maxPollTimeout {
		t = maxPollTimeout
	}

	n, err := unix.Poll(raw, t)
	if err != nil {
		return 0, err
	}

	for i := range raw {
		fds[i].Revents = raw[i].Revents
	}
	return n, nil
}
