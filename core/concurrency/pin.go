// File: core/concurrency/pin.go
// Author: momentics <momentics@gmail.com>
//
// Worker thread pinning, delegating to the affinity package for the
// actual platform syscall. numaNode is accepted for call-site compatibility
// with NewExecutor's signature but is not independently addressable here;
// only a target logical CPU (derived from the worker id) is pinned.

package concurrency

import "github.com/deniskin82/goselector/affinity"

// PinCurrentThread pins the calling OS thread to logical CPU cpuID.
// Errors are swallowed: affinity is a scheduling hint, not a correctness
// requirement, and unsupported platforms must not prevent workers from
// running.
func PinCurrentThread(numaNode, cpuID int) {
	_ = numaNode
	_ = affinity.SetAffinity(cpuID)
}
