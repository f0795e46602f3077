// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package selector provides a single-threaded, poll(2)-based I/O readiness
// multiplexer. Selectable objects register their file descriptors and
// interest with a Selector; Wait blocks until one or more become ready (or a
// timeout elapses, or the Selector is woken from another goroutine) and
// dispatches the readiness events back to the owning Selectables.
package selector
