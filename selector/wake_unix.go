//go:build unix

// File: selector/wake_unix.go
// Author: momentics <momentics@gmail.com>
//
// wakeChannel is a self-pipe: writing a sentinel byte to the write end
// makes the read end readable, which the Selector registers as wait-vector
// slot 0. Grounded on original_source/src/selectorimpl.cpp's
// ::pipe/::fcntl/::read sequence and the self-pipe drain-until-EAGAIN
// pattern used throughout the pack's other event-loop examples.

package selector

import (
	"errors"

	"golang.org/x/sys/unix"
)

// wakeChannel is the interface Selector uses for its cross-thread wake
// primitive; a single implementation backs it per platform.
type wakeChannel interface {
	readFD() int
	wake()
	drain() error
	close() error
}

type pipeWakeChannel struct {
	r, w int
}

func newWakeChannel() (wakeChannel, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, &IOError{Op: "pipe", Err: err}
	}
	return &pipeWakeChannel{r: fds[0], w: fds[1]}, nil
}

func (p *pipeWakeChannel) readFD() int { return p.r }

// wake writes a single sentinel byte. Write failures are ignored: a wake
// is idempotent, and if a prior wake is still pending in the pipe buffer
// the reader is already going to observe readability (spec.md §4.1).
func (p *pipeWakeChannel) wake() {
	buf := [1]byte{1}
	for {
		_, err := unix.Write(p.w, buf[:])
		if err == nil || !isEINTR(err) {
			return
		}
	}
}

// drain reads the pipe empty, treating EAGAIN (would-block) as the
// expected termination condition and retrying on EINTR. Any other error
// is fatal.
func (p *pipeWakeChannel) drain() error {
	var buf [64]byte
	for {
		_, err := unix.Read(p.r, buf[:])
		if err == nil {
			continue
		}
		if isEINTR(err) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			return nil
		}
		return err
	}
}

func (p *pipeWakeChannel) close() error {
	err1 := unix.Close(p.r)
	err2 := unix.Close(p.w)
	if err1 != nil {
		return err1
	}
	return err2
}

func isEINTR(err error) bool {
	return errors.Is(err, unix.EINTR)
}
