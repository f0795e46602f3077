//go:build !unix

// File: rpc/client_io_stub.go
// Author: momentics <momentics@gmail.com>
//
// Unreachable in practice: Dial fails via rawNonblockingFD before a
// Client exists on this platform. These satisfy the selector.Selectable
// interface so the package still compiles.

package rpc

import "github.com/deniskin82/goselector/selector"

func (c *Client) InitializePoll(slab []selector.PollFD) int { return 0 }

func (c *Client) CheckPollEvent() bool { return false }
