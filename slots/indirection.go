/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package slots implements the Indirection Table (§4.1/C2): the single
// point of mutation the collector uses to relocate objects without
// rewriting every mutator reference. Mutators only ever hold a Slot
// (an opaque uint32); the table maps it to a raw unsafe.Pointer at the
// object's current address.
package slots

import (
	"sync"
	"unsafe"
)

// Slot is an opaque handle into the indirection table. Slot 0 is the
// permanent null-reference sentinel.
type Slot uint32

const NullSlot Slot = 0

const pageEntries = 4096 / 8 // one page of *unsafe.Pointer-sized entries, matching the heap's page granularity

// freeNode is one entry in the interior free list.
type freeNode struct {
	slot Slot
	next *freeNode
}

// Table is the growable vector of raw object addresses.
type Table struct {
	addrMu sync.Mutex
	addrs  []unsafe.Pointer // addrs[0] is always nil

	freeMu   sync.Mutex
	freeHead *freeNode

	numAddresses int // high-water mark; entries [1, numAddresses) are allocated or freed-but-interior
}

// New returns an empty table with slot 0 pre-reserved as the null
// sentinel.
func New() *Table {
	t := &Table{addrs: make([]unsafe.Pointer, 1, pageEntries)}
	t.numAddresses = 1
	return t
}

// AllocateSlot returns a fresh slot with its entry set to addr, or
// NullSlot if the table could not grow (exhaustion/mapping failure).
func (t *Table) AllocateSlot(addr unsafe.Pointer) Slot {
	t.freeMu.Lock()
	if t.freeHead != nil {
		s := t.freeHead.slot
		t.freeHead = t.freeHead.next
		t.freeMu.Unlock()
		t.write(s, addr)
		return s
	}
	t.freeMu.Unlock()

	t.addrMu.Lock()
	defer t.addrMu.Unlock()
	if t.numAddresses >= 1<<32-1 {
		return NullSlot // full 32-bit range exhausted
	}
	if t.numAddresses >= len(t.addrs) {
		t.growLocked()
	}
	s := Slot(t.numAddresses)
	t.addrs[s] = addr
	t.numAddresses++
	return s
}

// growLocked extends addrs by one page. Caller holds addrMu.
func (t *Table) growLocked() {
	newCap := len(t.addrs) + pageEntries
	grown := make([]unsafe.Pointer, len(t.addrs), newCap)
	copy(grown, t.addrs)
	t.addrs = grown[:cap(grown)]
}

// FreeSlot releases slot: the entry is nulled, and the slot either
// shrinks the high-water mark (if it was the last occupied entry) or
// is pushed onto the interior free list.
func (t *Table) FreeSlot(s Slot) {
	if s == NullSlot {
		return
	}
	t.write(s, nil)

	t.addrMu.Lock()
	isLast := int(s) == t.numAddresses-1
	if isLast {
		t.numAddresses--
		// also collapse any newly-trailing nulls left by earlier frees
		for t.numAddresses > 1 && t.addrs[t.numAddresses-1] == nil {
			t.numAddresses--
		}
	}
	t.addrMu.Unlock()
	if isLast {
		return
	}

	t.freeMu.Lock()
	t.freeHead = &freeNode{slot: s, next: t.freeHead}
	t.freeMu.Unlock()
}

// Read loads the raw address for s without taking any lock (the
// collector is the sole writer, and only runs while every mutator is
// parked at a safepoint).
func (t *Table) Read(s Slot) unsafe.Pointer {
	if int(s) >= len(t.addrs) {
		return nil
	}
	return t.addrs[s]
}

// Write stores addr into s's entry; only the collector calls this
// directly during a relocation pass (mutators go through AllocateSlot/
// FreeSlot).
func (t *Table) Write(s Slot, addr unsafe.Pointer) { t.write(s, addr) }

func (t *Table) write(s Slot, addr unsafe.Pointer) {
	t.addrMu.Lock()
	defer t.addrMu.Unlock()
	if int(s) >= len(t.addrs) {
		return
	}
	t.addrs[s] = addr
}

// HighWaterMark returns the current occupied-range bound (numAddresses).
func (t *Table) HighWaterMark() int {
	t.addrMu.Lock()
	defer t.addrMu.Unlock()
	return t.numAddresses
}

// RebuildFreeList truncates trailing nulls and re-derives the free list
// by scanning the interior of [1, numAddresses) for null entries. It is
// invoked by the collector when fragmentation (§4.3's numFragmentedFree
// threshold) gets high.
func (t *Table) RebuildFreeList() {
	t.addrMu.Lock()
	for t.numAddresses > 1 && t.addrs[t.numAddresses-1] == nil {
		t.numAddresses--
	}
	var head *freeNode
	for i := t.numAddresses - 1; i >= 1; i-- {
		if t.addrs[i] == nil {
			head = &freeNode{slot: Slot(i), next: head}
		}
	}
	hwm := t.numAddresses
	t.addrMu.Unlock()

	t.freeMu.Lock()
	t.freeHead = head
	t.freeMu.Unlock()
	_ = hwm
}

// Remapping records an old-slot -> new-slot move produced by Compact.
type Remapping struct {
	Old Slot
	New Slot
}

// Compact densely packs live (non-nil) entries toward index 1,
// returning the list of remappings the GC must apply to every
// reference-typed field and operand-stack slot in the live set. It is
// only ever called by the collector, never concurrently with a
// mutator.
func (t *Table) Compact() []Remapping {
	t.addrMu.Lock()
	defer t.addrMu.Unlock()

	var remaps []Remapping
	write := 1
	for read := 1; read < t.numAddresses; read++ {
		if t.addrs[read] == nil {
			continue
		}
		if read != write {
			t.addrs[write] = t.addrs[read]
			t.addrs[read] = nil
			remaps = append(remaps, Remapping{Old: Slot(read), New: Slot(write)})
		}
		write++
	}
	t.numAddresses = write

	t.freeMu.Lock()
	t.freeHead = nil
	t.freeMu.Unlock()

	return remaps
}
