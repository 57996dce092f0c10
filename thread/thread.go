/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's thread package (execution thread identity).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread tracks every running interpreter goroutine well
// enough for two things only the engine (not the Go runtime) can know:
// which frame stacks are live root sets for the collector, and which
// goroutines must park at a safepoint before a collection cycle can
// run. This mirrors jacobin's own ExecThread/thread-table split, kept
// much smaller since this engine runs each Java thread as one Go
// goroutine rather than managing OS threads directly.
package thread

import (
	"container/list"
	"sync"
	"sync/atomic"

	"govm/globals"
)

// Status values for an ExecThread.
const (
	StatusRunnable = iota
	StatusParked   // parked at a safepoint, waiting for GC to finish
	StatusDone
)

// ExecThread is one Java thread of execution: an id, its frame stack
// (the GC root set for locals/operand-stack references), and the
// status the safepoint protocol reads and writes.
type ExecThread struct {
	ID         int64
	Name       string
	FrameStack *list.List

	// PendingException records the exception an athrow raised, from
	// the athrow until the dispatcher's exception-table walk finds a
	// handler (which clears it). Exceptions raised by native methods or
	// by the interpreter itself (e.g. on a null dereference) travel as
	// error messages and do not set it. nil means none is recorded.
	PendingException *JavaThrowable

	status int32 // atomic, one of the Status* constants
}

// JavaThrowable is a raised JVM exception/error: the internal class
// name that was thrown and the message passed to its constructor, kept
// independent of object.Object so this package does not need to import
// it just to carry an exception.
type JavaThrowable struct {
	ExceptionClass string
	Msg            string
}

// NewExecThread allocates a thread with the next global thread id and
// registers it so the collector and safepoint protocol know about it.
func NewExecThread(name string) *ExecThread {
	t := &ExecThread{
		ID:         globals.GetGlobalRef().NextThreadID(),
		Name:       name,
		FrameStack: list.New(),
	}
	Register(t)
	return t
}

func (t *ExecThread) Status() int { return int(atomic.LoadInt32(&t.status)) }

func (t *ExecThread) setStatus(s int) { atomic.StoreInt32(&t.status, int32(s)) }

var (
	registryMu sync.RWMutex
	registry   = map[int64]*ExecThread{}

	safepointRequested int32 // atomic bool: GC wants every thread parked
)

// Register adds t to the set of live threads the collector scans.
func Register(t *ExecThread) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.ID] = t
}

// Unregister removes t (called when a thread's run method returns).
func Unregister(t *ExecThread) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, t.ID)
}

// All returns a snapshot of every currently registered thread, used by
// the collector to build its root set.
func All() []*ExecThread {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*ExecThread, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	return out
}

// RequestSafepoint asks every registered thread to park the next time
// it calls CheckSafepoint, and busy-waits in a tight polling loop
// until they all report StatusParked. The caller (the collector) is
// itself not a registered mutator thread, so it is not blocked by its
// own request.
func RequestSafepoint() {
	atomic.StoreInt32(&safepointRequested, 1)
	for {
		allParked := true
		for _, t := range All() {
			if t.Status() != StatusParked {
				allParked = false
				break
			}
		}
		if allParked {
			return
		}
	}
}

// ReleaseSafepoint ends a collection cycle: parked threads observe this
// on their next CheckSafepoint call and resume.
func ReleaseSafepoint() {
	atomic.StoreInt32(&safepointRequested, 0)
}

// CheckSafepoint is called by the interpreter dispatcher before every
// bytecode instruction it executes.
// If a collection has been requested, the calling thread parks until
// it is released.
func (t *ExecThread) CheckSafepoint() {
	if atomic.LoadInt32(&safepointRequested) == 0 {
		return
	}
	t.setStatus(StatusParked)
	for atomic.LoadInt32(&safepointRequested) != 0 {
		// busy-wait: the collector runs synchronously on whichever
		// goroutine called RequestSafepoint, so there is no condvar to
		// wait on without risking missing the release.
	}
	t.setStatus(StatusRunnable)
}
