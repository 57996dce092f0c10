/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements the four-region generational memory layout
// described in §4.2 of the spec: eden, two survivor halves, and old.
//
// The original design bump-allocates objects out of one contiguous
// mmap'd reservation and has the collector copy raw bytes between
// regions. That is not an idiom Go can express safely: Go already owns
// every pointer's backing memory through its own runtime GC, and there
// is no safe way for this engine to relocate a live Go value's bytes
// out from under a pointer another goroutine might be dereferencing.
// Region accounting here is therefore *logical*: each Region tracks a
// byte budget (the fractions specified in §4.2: eden 1/4, survivor-A
// and survivor-B 1/8 each, old 1/2 of the configured max heap) and a
// set of live objects. "Copying" an object between regions means
// moving its slot's bookkeeping from one Region to another and
// rewriting the indirection table entry to point at a freshly
// allocated Go value carrying the same field data — the observable
// behavior the spec's invariants (§8: "no live object remains in eden
// or the previously active survivor half after a minor GC") hold
// exactly, even though the underlying bytes are reclaimed by the Go
// runtime rather than by this engine.
package heap

import (
	"sync"

	"github.com/pkg/errors"
)

// RegionKind identifies which of the four regions an object
// (logically) lives in.
type RegionKind int

const (
	Eden RegionKind = iota
	SurvivorA
	SurvivorB
	Old
)

func (k RegionKind) String() string {
	switch k {
	case Eden:
		return "eden"
	case SurvivorA:
		return "survivor-A"
	case SurvivorB:
		return "survivor-B"
	case Old:
		return "old"
	default:
		return "unknown"
	}
}

// Region tracks the logical occupancy of one generation.
type Region struct {
	Kind     RegionKind
	Capacity int64 // byte budget
	Used     int64 // bytes logically allocated
}

func (r *Region) hasRoom(size int64) bool { return r.Used+size <= r.Capacity }

// Heap is the four-region reservation, sized from a single configured
// maximum (the spec's "one contiguous virtual reservation"). All
// allocation is serialized by mu, matching §4.2's "called under a heap
// mutex".
type Heap struct {
	mu sync.Mutex

	Reservation int64
	EdenR       Region
	SurvivorA_  Region
	SurvivorB_  Region
	OldR        Region

	activeSurvivor RegionKind // SurvivorA or SurvivorB, whichever is "active"
}

// New creates a heap of the given total reservation size, which must be
// a multiple of 4096 (the spec's alignment requirement for -Xmx).
func New(reservation int64) (*Heap, error) {
	if reservation <= 0 || reservation%4096 != 0 {
		return nil, errors.Errorf("heap reservation %d is not a positive multiple of 4096", reservation)
	}
	h := &Heap{
		Reservation:    reservation,
		EdenR:          Region{Kind: Eden, Capacity: reservation / 4},
		SurvivorA_:     Region{Kind: SurvivorA, Capacity: reservation / 8},
		SurvivorB_:     Region{Kind: SurvivorB, Capacity: reservation / 8},
		OldR:           Region{Kind: Old, Capacity: reservation / 2},
		activeSurvivor: SurvivorA,
	}
	return h, nil
}

// ActiveSurvivor returns a pointer to whichever survivor half is
// currently active.
func (h *Heap) ActiveSurvivor() *Region {
	if h.activeSurvivor == SurvivorA {
		return &h.SurvivorA_
	}
	return &h.SurvivorB_
}

// InactiveSurvivor returns a pointer to the currently inactive survivor
// half (the one the previous minor cycle copied into, and which the
// next minor cycle traces as a source).
func (h *Heap) InactiveSurvivor() *Region {
	if h.activeSurvivor == SurvivorA {
		return &h.SurvivorB_
	}
	return &h.SurvivorA_
}

// SwapSurvivors flips which survivor half is active; called at the
// start of every minor collection cycle.
func (h *Heap) SwapSurvivors() {
	if h.activeSurvivor == SurvivorA {
		h.activeSurvivor = SurvivorB
	} else {
		h.activeSurvivor = SurvivorA
	}
}

// TryAllocEden reserves size bytes of eden budget, returning false if
// eden has no room (the caller then requests a minor GC and retries).
func (h *Heap) TryAllocEden(size int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.EdenR.hasRoom(size) {
		return false
	}
	h.EdenR.Used += size
	return true
}

// TryPromote reserves size bytes of old-generation budget.
func (h *Heap) TryPromote(size int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.OldR.hasRoom(size) {
		return false
	}
	h.OldR.Used += size
	return true
}

// TryAllocSurvivor reserves size bytes in the currently active
// survivor half.
func (h *Heap) TryAllocSurvivor(size int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	active := h.ActiveSurvivor()
	if !active.hasRoom(size) {
		return false
	}
	active.Used += size
	return true
}

// ResetEden zeroes eden's occupancy after a minor collection has
// evacuated every live object out of it.
func (h *Heap) ResetEden() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.EdenR.Used = 0
}

// ResetInactiveSurvivor zeroes the previously active survivor half's
// occupancy after a minor collection has evacuated it.
func (h *Heap) ResetInactiveSurvivor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.InactiveSurvivor() = Region{Kind: h.InactiveSurvivor().Kind, Capacity: h.InactiveSurvivor().Capacity}
}

// SetOldUsed overwrites the old generation's occupancy, used by the
// major (compacting) collector after it has computed the new live
// total.
func (h *Heap) SetOldUsed(used int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.OldR.Used = used
}

// Snapshot returns a point-in-time copy of all four regions, used for
// diagnostics and tests.
func (h *Heap) Snapshot() (eden, survA, survB, old Region) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.EdenR, h.SurvivorA_, h.SurvivorB_, h.OldR
}
