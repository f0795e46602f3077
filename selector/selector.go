// File: selector/selector.go
// Author: momentics <momentics@gmail.com>
//
// Selector is a single-threaded, poll(2)-based I/O readiness multiplexer.
// It owns the registration set of Selectables, the packed wait-vector
// rebuilt from their contributions, and a wake channel usable from any
// goroutine. See doc.go for the package-level overview and spec.md /
// SPEC_FULL.md §3-4 for the authoritative data model and algorithms this
// type implements.

package selector

import (
	"sync"
)

// Forever is the sentinel timeout meaning "wait with no deadline".
const Forever = -1

// Selector multiplexes readiness across a set of registered Selectables.
// Exactly one goroutine may call Wait at a time; Wake is the sole operation
// safe to call concurrently from any other goroutine. All other methods
// require external synchronization if used concurrently with Wait.
type Selector struct {
	mu sync.Mutex // guards devices/index/avail/dirty/pollfds against Add/Remove/Changed races with Wait's bookkeeping

	devices []Selectable          // stable-order registration set
	index   map[Selectable]int    // registrant identity -> position in devices
	avail   map[Selectable]bool   // subset of devices known synchronously ready
	pollfds []PollFD              // packed wait-vector; element 0 is always the wake reader
	dirty   bool                  // true if devices/slot-layout changed since last rebuild
	current int                   // cursor into devices, valid only during dispatch; len(devices) means "end"
	closed  bool

	wake  wakeChannel
	clock Clock
}

// NewSelector constructs a Selector with its wake channel and default
// monotonic clock. Returns ErrUnsupportedPlatform (via the build-tagged
// wake channel constructor) if the host platform has no backend.
func NewSelector() (*Selector, error) {
	w, err := newWakeChannel()
	if err != nil {
		return nil, err
	}
	s := &Selector{
		devices: make([]Selectable, 0),
		index:   make(map[Selectable]int),
		avail:   make(map[Selectable]bool),
		current: 0,
		wake:    w,
		clock:   newMonotonicClock(),
	}
	s.dirty = true
	return s, nil
}

// Close detaches every remaining Selectable (draining the registration set
// to empty) and closes the wake channel's endpoints. Safe to call once;
// a Wait after Close returns ErrClosed.
func (s *Selector) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	// Snapshot: detaching calls back into s.detach, which mutates devices.
	remaining := make([]Selectable, len(s.devices))
	copy(remaining, s.devices)
	s.mu.Unlock()

	for _, d := range remaining {
		d.SetSelector(nil)
	}
	return s.wake.close()
}

// Add registers d with this Selector. Idempotent: adding an already
// registered Selectable is a no-op (spec.md §9 Open Questions).
func (s *Selector) Add(d Selectable) {
	d.SetSelector(s)
}

// Remove deregisters d. No-op if d is not currently registered with this
// Selector.
func (s *Selector) Remove(d Selectable) {
	s.mu.Lock()
	_, ok := s.index[d]
	s.mu.Unlock()
	if !ok {
		return
	}
	d.SetSelector(nil)
}

// attach is called by Selectable.SetSelector to add d to the registration
// set. Called with no locks held by the Selectable implementation.
func (s *Selector) attach(d Selectable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[d]; ok {
		return
	}
	s.index[d] = len(s.devices)
	s.devices = append(s.devices, d)
	s.dirty = true
}

// detach removes d from the registration set, preserving cursor validity
// per §4.3: if d sits at the dispatch cursor, the cursor is advanced past
// it atomically with the erase.
func (s *Selector) detach(d Selectable) {
	s.remove(d)
}

// remove erases d from devices, preserving the stable relative order of
// every remaining registrant (spec.md §3: "iteration order is stable
// between mutations"). The dispatch cursor is adjusted to match
// "current = erase(current)": removing the element at the cursor leaves
// current pointing at the next element (now shifted into that slot, or
// at end); removing an element before the cursor shifts it left by one;
// removing an element after the cursor leaves it untouched.
func (s *Selector) remove(d Selectable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[d]
	if !ok {
		return
	}
	s.devices = append(s.devices[:pos], s.devices[pos+1:]...)
	delete(s.index, d)
	delete(s.avail, d)
	for i := pos; i < len(s.devices); i++ {
		s.index[s.devices[i]] = i
	}
	if s.current > pos {
		s.current--
	}
	s.dirty = true
}

// Changed is invoked by a Selectable when its synchronous availability
// flips. It updates the avail set but never sets dirty — only structural
// changes require a rebuild.
func (s *Selector) Changed(d Selectable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Avail() {
		s.avail[d] = true
	} else {
		delete(s.avail, d)
	}
}

// rebuild regenerates the packed wait-vector from the wake channel reader
// plus every enabled device's contribution. Must be called with s.mu held.
func (s *Selector) rebuild() {
	total := 1
	enabled := make([]Selectable, 0, len(s.devices))
	for _, d := range s.devices {
		if d.Enabled() {
			enabled = append(enabled, d)
			total += d.PollSize()
		}
	}

	fds := make([]PollFD, total)
	for i := range fds {
		fds[i] = PollFD{Fd: -1}
	}
	fds[0] = PollFD{Fd: s.wake.readFD(), Events: Readable}

	off := 1
	for _, d := range enabled {
		want := d.PollSize()
		if want == 0 {
			continue
		}
		slab := fds[off : off+want]
		got := d.InitializePoll(slab)
		if got != want {
			contractViolation(d, want, got)
		}
		off += want
	}

	s.pollfds = fds
	s.dirty = false
}

// Wait blocks up to timeoutMillis (or indefinitely if timeoutMillis ==
// Forever) for readiness, dispatches events to registrants in registration
// order, and returns whether anything became available. See SPEC_FULL.md
// §4.6 for the algorithm this implements.
func (s *Selector) Wait(timeoutMillis int) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}

	hadAvail := len(s.avail) > 0
	remaining := timeoutMillis
	if hadAvail {
		remaining = 0
	}

	if s.dirty {
		s.rebuild()
	}
	fds := s.pollfds
	s.mu.Unlock()

	n, err := s.pollRetrying(fds, remaining)
	if err != nil {
		return false, err
	}

	if n == 0 && !hadAvail {
		return false, nil
	}

	ok, err := s.dispatch(fds)
	if err != nil {
		return false, err
	}
	// A non-empty avail set at entry counts as available even when no
	// registrant's CheckPollEvent observed an event this cycle.
	return ok || hadAvail, nil
}

// pollRetrying invokes the OS readiness primitive, retrying on interrupted
// syscalls while deducting elapsed time from the remaining budget
// (saturating at 0), per §4.2.
func (s *Selector) pollRetrying(fds []PollFD, timeoutMillis int) (int, error) {
	start := s.clock.NowMillis()
	remaining := clampTimeout(timeoutMillis)
	for {
		n, err := osPoll(fds, remaining)
		if err == nil {
			return n, nil
		}
		if !isEINTR(err) {
			return 0, &IOError{Op: "poll", Err: err}
		}
		if remaining == Forever {
			continue
		}
		now := s.clock.NowMillis()
		remaining = remaining - int(now-start)
		start = now
		if remaining < 0 {
			remaining = 0
		}
	}
}

// dispatch walks the registration set from the beginning, delivering
// readiness events. The wake channel (slot 0) is always processed first.
// Registrants added by a callback during this dispatch have no slots in
// fds and are not visited until the next Wait.
func (s *Selector) dispatch(fds []PollFD) (bool, error) {
	avail := false

	if len(fds) > 0 && (fds[0].Readable() || fds[0].Errored()) {
		if fds[0].Errored() {
			return false, &IOError{Op: "wake-read", Err: errWakeChannelError}
		}
		if err := s.wake.drain(); err != nil {
			return false, &IOError{Op: "wake-read", Err: err}
		}
		avail = true
	}

	s.mu.Lock()
	s.current = 0
	polled := make(map[Selectable]bool, len(s.devices))
	for _, d := range s.devices {
		polled[d] = true
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.current = len(s.devices)
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if s.current >= len(s.devices) {
			s.mu.Unlock()
			break
		}
		d := s.devices[s.current]
		s.mu.Unlock()

		if polled[d] && d.Enabled() && d.CheckPollEvent() {
			avail = true
		}

		s.mu.Lock()
		// Advance only if the cursor still points at d. remove()'s
		// index-compensation already accounts for a callback removing d
		// itself or any earlier-positioned registrant: in both cases
		// devices[current] no longer equals d by the time we get here,
		// so the loop re-reads whatever now sits at current instead of
		// re-dispatching d. Comparing against the pre-callback cursor
		// value here (instead of just the identity check) would wrongly
		// skip the advance whenever an earlier registrant was removed,
		// causing d to be dispatched a second time next iteration.
		if s.current < len(s.devices) && s.devices[s.current] == d {
			s.current++
		}
		s.mu.Unlock()
	}

	return avail, nil
}

// Wake causes a concurrent or subsequent Wait to return promptly by
// writing a sentinel byte to the wake channel. Safe to call from any
// goroutine, including one other than the one running Wait.
func (s *Selector) Wake() {
	s.wake.wake()
}

// MarkDirty forces the wait-vector to be rebuilt before the next Wait
// call, for a registered Selectable whose reported interest mask has
// changed without its PollSize or the registration membership changing
// (e.g. a connection that wants write-readiness only while it has
// buffered output). Add and Remove already imply this for structural
// changes; MarkDirty covers interest-only changes, which spec.md's
// dirty flag definition (§3: "any enabled Selectable's wait-slot layout
// may have changed") also names but §4.3/§4.4 do not wire a trigger for.
// Must be called from the goroutine driving Wait.
func (s *Selector) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// DeviceCount reports the number of currently registered Selectables.
// Intended for observability (control.Registry), not for control flow.
func (s *Selector) DeviceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

// AvailCount reports the number of registrants currently in the
// synchronous-avail set.
func (s *Selector) AvailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.avail)
}

func clampTimeout(millis int) int {
	if millis == Forever {
		return Forever
	}
	if millis < 0 {
		return 0
	}
	return millis
}
