//go:build !unix

// File: rpc/fd_stub.go
// Author: momentics <momentics@gmail.com>

package rpc

import (
	"github.com/deniskin82/goselector/selector"
)

func rawNonblockingFD(conn any) (int, error) {
	return -1, selector.ErrUnsupportedPlatform
}
