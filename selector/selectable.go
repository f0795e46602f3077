// File: selector/selectable.go
// Author: momentics <momentics@gmail.com>
//
// Selectable is the contract every registrant of a Selector must satisfy.

package selector

// PollFD is one slot of the packed wait-vector passed to the OS readiness
// primitive: a descriptor, the interest mask the caller is waiting for, and
// the result mask the primitive reports back. Interest and Revents are
// bitmasks built from Readable / Writable (platform-specific values, see
// consts_unix.go).
type PollFD struct {
	Fd      int
	Events  int16
	Revents int16
}

// Readable reports whether the result mask of a slot indicates read
// readiness.
func (p PollFD) Readable() bool { return p.Revents&Readable != 0 }

// Writable reports whether the result mask of a slot indicates write
// readiness.
func (p PollFD) Writable() bool { return p.Revents&Writable != 0 }

// Errored reports whether the result mask carries an error/hangup/invalid
// bit (fatal for the wake channel slot, informative for ordinary
// Selectables).
func (p PollFD) Errored() bool { return p.Revents&errorMask != 0 }

// Selectable is an object willing to be multiplexed by a Selector. A
// Selectable is back-referenced by at most one Selector at a time (set via
// SetSelector); it contributes a contiguous slab of wait-vector slots each
// dispatch cycle and is polled after the OS wait to determine readiness.
type Selectable interface {
	// SetSelector attaches (non-nil) or detaches (nil) this Selectable from
	// a Selector. Detaching removes it from the Selector's registration
	// set; attaching adds it. Implementations must guarantee at most one
	// Selector references this Selectable at a time.
	SetSelector(s *Selector)

	// Selector returns the Selector this instance is currently attached to,
	// or nil if detached.
	Selector() *Selector

	// Enabled reports whether this Selectable participates in the current
	// poll cycle. A disabled Selectable contributes zero slots and is
	// skipped during dispatch, but remains registered.
	Enabled() bool

	// Avail reports whether this Selectable is already synchronously ready,
	// without needing to wait (e.g. buffered input). A non-empty avail set
	// across all registrants forces a zero-timeout wait.
	Avail() bool

	// PollSize reports how many wait-vector slots this Selectable needs
	// this cycle. May be zero.
	PollSize() int

	// InitializePoll fills the given slab (exactly PollSize() long) with
	// this Selectable's descriptors and interest masks, and returns the
	// number of slots it actually used. The returned count must equal
	// PollSize(); a mismatch is a contract violation (see errors.go).
	InitializePoll(slab []PollFD) int

	// CheckPollEvent inspects this Selectable's previously assigned slots
	// after the OS wait returns, dispatches any observed event internally,
	// and reports whether at least one readiness event was observed.
	CheckPollEvent() bool
}

// BaseSelectable is an embeddable helper implementing the back-reference and
// attach/detach dance (SetSelector/Selector) that every Selectable needs.
// Concrete types embed BaseSelectable and must call Init(self) once, passing
// their own Selectable-implementing pointer, before use — mirroring the
// parent/self split of the original Selectable/SelectableImpl pair.
type BaseSelectable struct {
	self Selectable
	sel  *Selector
}

// Init records the concrete Selectable that embeds this BaseSelectable.
// Must be called exactly once, typically from the concrete type's
// constructor.
func (b *BaseSelectable) Init(self Selectable) { b.self = self }

// Selector returns the currently attached Selector, or nil.
func (b *BaseSelectable) Selector() *Selector { return b.sel }

// SetSelector implements the attach/detach contract: detaching from any
// previous Selector before attaching to the new one (or none). It is the
// single place that keeps the back-reference and the Selector's
// registration set consistent; Selector.Add/Remove are thin convenience
// wrappers around it.
func (b *BaseSelectable) SetSelector(s *Selector) {
	if b.sel == s {
		return
	}
	old := b.sel
	b.sel = s
	if old != nil {
		old.detach(b.self)
	}
	if s != nil {
		s.attach(b.self)
	}
}

// Enabled defaults to true; override in the embedding type to gate
// participation dynamically.
func (b *BaseSelectable) Enabled() bool { return true }

// Avail defaults to false; override in the embedding type to report
// synchronous readiness.
func (b *BaseSelectable) Avail() bool { return false }
