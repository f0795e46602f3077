//go:build unix

// File: rpc/fd_unix.go
// Author: momentics <momentics@gmail.com>

package rpc

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// rawNonblockingFD extracts the OS file descriptor backing conn and puts
// it in non-blocking mode, so Client/Server can drive it directly through
// raw unix.Read/unix.Write/Accept4 calls under a selector.Selector instead
// of Go's runtime network poller. conn is typically a net.Conn or a
// *net.TCPListener; both implement syscall.Conn.
func rawNonblockingFD(conn any) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("rpc: connection type %T does not support raw fd access", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}

	var fd int
	var setErr error
	err = raw.Control(func(descriptor uintptr) {
		fd = int(descriptor)
		setErr = unix.SetNonblock(fd, true)
	})
	if err != nil {
		return -1, err
	}
	if setErr != nil {
		return -1, setErr
	}
	return fd, nil
}
