//go:build unix

// File: selector/consts_unix.go
// Author: momentics <momentics@gmail.com>

package selector

import "golang.org/x/sys/unix"

// Readable / Writable are the interest and result bits understood by
// poll(2) on this platform, taken straight from golang.org/x/sys/unix —
// the same module the teacher imports for reactor_linux.go.
const (
	Readable int16 = unix.POLLIN
	Writable int16 = unix.POLLOUT
)

// errorMask bundles the bits poll(2) sets regardless of requested
// interest: error, hangup, invalid descriptor.
const errorMask int16 = unix.POLLERR | unix.POLLHUP | unix.POLLNVAL
