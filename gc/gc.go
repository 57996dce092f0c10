/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's gc/heap/indirection trio (collector driver).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gc ties together the indirection table (package slots), the
// generational region accounting (package heap), and the mutator root
// sets (package thread, package classloader's static fields) into the
// minor/major collection cycles described in §4.3 of the spec.
package gc

import (
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"govm/classloader"
	"govm/frames"
	"govm/heap"
	"govm/object"
	"govm/slots"
	"govm/thread"
	"govm/trace"
)

// record is the collector's own bookkeeping for one live slot: which
// logical region it counts against and how many bytes it occupies,
// since the Go runtime (not this engine) owns the object's actual
// memory (see heap.Heap's package doc for why).
type record struct {
	region heap.RegionKind
	size   int64
}

// GCMode is the strength of a scheduled-collection request, per §4.3:
// a dedicated collector goroutine wakes on either an elapsed interval
// or a mutator's requestGC(mode) call, and concurrent requests pending
// between wakeups merge to the strongest one requested.
type GCMode int

const (
	// ModeNormal lets the scheduler's own elapsed-interval judgment
	// stand -- currently always a minor collection, since this engine
	// has no separate allocation-rate heuristic driving the scheduler.
	ModeNormal GCMode = iota
	// ModeMinorOnly forces a minor collection even absent eden pressure.
	ModeMinorOnly
	// ModeForceMajor forces a full mark-compact over every region.
	ModeForceMajor
)

// Collector owns the indirection table, the heap's region accounting,
// and the per-slot bookkeeping needed to run minor and major cycles.
type Collector struct {
	Table *slots.Table
	Heap  *heap.Heap

	mu      sync.Mutex
	records map[slots.Slot]*record

	minorCycles int64
	majorCycles int64

	schedMu     sync.Mutex
	running     bool
	hasPending  bool
	pendingMode GCMode
	wake        chan struct{}
	stop        chan struct{}
	schedDone   chan struct{}
}

// New creates a collector over a freshly sized heap and indirection
// table.
func New(maxHeap int64) (*Collector, error) {
	h, err := heap.New(maxHeap)
	if err != nil {
		return nil, err
	}
	return &Collector{
		Table:   slots.New(),
		Heap:    h,
		records: make(map[slots.Slot]*record),
	}, nil
}

// objectSize estimates an object's logical footprint as 16 bytes of
// header plus 8 bytes per field slot, matching the Value Cell width
// uniformly regardless of a field's declared primitive width — the
// same simplification the spec's region-budget accounting already
// makes by tracking bytes logically rather than physically.
func objectSize(obj *object.Object) int64 {
	return 16 + int64(len(obj.FieldTable))*8
}

// Allocate installs obj behind a fresh indirection-table slot, charging
// its estimated size against eden. If eden has no room, a minor
// collection runs first; if that still leaves no room, the object is
// promoted directly into old (mirroring a full young generation
// forcing a direct old-gen allocation), and if old is also full, a
// major collection runs before giving up with OutOfMemoryError.
func (c *Collector) Allocate(obj *object.Object) (slots.Slot, error) {
	size := objectSize(obj)

	if !c.Heap.TryAllocEden(size) {
		c.MinorCollection()
		if !c.Heap.TryAllocEden(size) {
			if !c.Heap.TryPromote(size) {
				c.MajorCollection()
				if !c.Heap.TryPromote(size) {
					return slots.NullSlot, errors.New("OutOfMemoryError: heap exhausted")
				}
			}
			return c.install(obj, heap.Old, size), nil
		}
	}
	return c.install(obj, heap.Eden, size), nil
}

func (c *Collector) install(obj *object.Object, region heap.RegionKind, size int64) slots.Slot {
	s := c.Table.AllocateSlot(unsafe.Pointer(obj))
	c.mu.Lock()
	c.records[s] = &record{region: region, size: size}
	c.mu.Unlock()
	return s
}

// rootSlots returns every slot directly reachable from a mutator root:
// every registered thread's operand-stack and local-variable reference
// cells, plus every loaded class's reference-typed static fields.
func (c *Collector) rootSlots() []slots.Slot {
	var roots []slots.Slot
	for _, t := range thread.All() {
		for e := t.FrameStack.Front(); e != nil; e = e.Next() {
			fr := e.Value.(*frames.Frame)
			roots = append(roots, referenceSlots(fr.OpStack)...)
			roots = append(roots, referenceSlots(fr.Locals)...)
		}
	}
	roots = append(roots, classloader.StaticReferenceRoots()...)
	return roots
}

// referenceSlots filters a frame's cells down to the live (non-null)
// reference slots among them and projects each to its indirection-table
// slot number, via lo.FilterMap rather than a hand-rolled filter-then-
// append loop at every root-walk call site.
func referenceSlots(cells []frames.Cell) []slots.Slot {
	return lo.FilterMap(cells, func(cell frames.Cell, _ int) (slots.Slot, bool) {
		return slots.Slot(cell.Slot()), cell.Tag == frames.TagReference && !cell.IsNull()
	})
}

// mark walks the object graph from roots, following each object's
// reference-typed fields (Ftype "L..." or "[..."), and returns the set
// of every slot found live.
func (c *Collector) mark(roots []slots.Slot) map[slots.Slot]bool {
	live := make(map[slots.Slot]bool, len(roots)*2)
	var stack []slots.Slot
	for _, r := range roots {
		if r != slots.NullSlot && !live[r] {
			live[r] = true
			stack = append(stack, r)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		addr := c.Table.Read(s)
		if addr == nil {
			continue
		}
		obj := (*object.Object)(addr)
		for _, f := range obj.FieldTable {
			if f == nil {
				continue
			}
			if len(f.Ftype) == 0 || (f.Ftype[0] != 'L' && f.Ftype[0] != '[') {
				continue
			}
			switch fv := f.Fvalue.(type) {
			case uint32:
				if child := slots.Slot(fv); child != slots.NullSlot && !live[child] {
					live[child] = true
					stack = append(stack, child)
				}
			case []uint32:
				// a reference-typed array (its Ftype starts with "[L" or
				// is itself "[[..."): each element is a slot number in
				// its own right.
				for _, s := range fv {
					child := slots.Slot(s)
					if child != slots.NullSlot && !live[child] {
						live[child] = true
						stack = append(stack, child)
					}
				}
			}
		}
	}
	return live
}

// MinorCollection runs a stop-the-world copying collection over eden
// and the previously-active survivor half, per §4.3: live objects move
// (logically — see heap's doc comment) into the active survivor half
// while it has room, and straight into old once it is full. No
// per-object survival count is kept, so an object is promoted only
// when the survivor half overflows, never by age.
func (c *Collector) MinorCollection() {
	thread.RequestSafepoint()
	defer thread.ReleaseSafepoint()

	live := c.mark(c.rootSlots())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Heap.SwapSurvivors()
	var survivorBytes, oldBytes int64
	for s, rec := range c.records {
		if rec.region != heap.Eden && rec.region != heap.SurvivorA && rec.region != heap.SurvivorB {
			continue
		}
		if !live[s] {
			c.Table.FreeSlot(s)
			delete(c.records, s)
			continue
		}
		if c.Heap.ActiveSurvivor().Capacity-survivorBytes >= rec.size {
			rec.region = activeSurvivorKind(c.Heap)
			survivorBytes += rec.size
		} else {
			rec.region = heap.Old
			oldBytes += rec.size
		}
	}
	c.Heap.ResetEden()
	c.Heap.ResetInactiveSurvivor()
	c.Heap.TryAllocSurvivor(survivorBytes)
	if oldBytes > 0 {
		c.Heap.TryPromote(oldBytes)
	}
	c.Table.RebuildFreeList()
	c.minorCycles++
	trace.Trace("gc: minor collection complete")
}

func activeSurvivorKind(h *heap.Heap) heap.RegionKind { return h.ActiveSurvivor().Kind }

// MajorCollection runs a stop-the-world mark-compact over the entire
// heap (all four regions), per §4.3's description of a full GC:
// anything unreachable is dropped, and the indirection table is
// compacted so fragmentation from the minor cycles' evacuation is
// reclaimed.
func (c *Collector) MajorCollection() {
	thread.RequestSafepoint()
	defer thread.ReleaseSafepoint()

	live := c.mark(c.rootSlots())

	c.mu.Lock()
	var oldUsed int64
	for s, rec := range c.records {
		if !live[s] {
			c.Table.FreeSlot(s)
			delete(c.records, s)
			continue
		}
		rec.region = heap.Old
		oldUsed += rec.size
	}
	c.mu.Unlock()

	remaps := c.Table.Compact()
	c.applyRemap(remaps)
	c.Heap.ResetEden()
	c.Heap.SetOldUsed(oldUsed)
	c.majorCycles++
	trace.Trace("gc: major collection complete")
}

// applyRemap fixes up every mutator-visible slot number after a
// compaction pass renumbers the indirection table: operand-stack and
// local-variable reference Cells, reference-typed instance/array
// fields on every object that is still live, and reference-typed
// static fields. Without this pass the slot numbers a compaction
// leaves behind in Bits/Fvalue would point at whatever object a
// compacted slot now holds instead of the one they used to reference.
func (c *Collector) applyRemap(remaps []slots.Remapping) {
	if len(remaps) == 0 {
		return
	}
	oldToNew := make(map[uint32]uint32, len(remaps))
	for _, r := range remaps {
		oldToNew[uint32(r.Old)] = uint32(r.New)
	}

	remapCell := func(cell frames.Cell) frames.Cell {
		if cell.Tag == frames.TagReference && !cell.IsNull() {
			if nv, ok := oldToNew[cell.Slot()]; ok {
				return frames.RefCell(nv)
			}
		}
		return cell
	}
	for _, t := range thread.All() {
		for e := t.FrameStack.Front(); e != nil; e = e.Next() {
			fr := e.Value.(*frames.Frame)
			for i, cell := range fr.OpStack {
				fr.OpStack[i] = remapCell(cell)
			}
			for i, cell := range fr.Locals {
				fr.Locals[i] = remapCell(cell)
			}
		}
	}

	c.mu.Lock()
	rekeyed := make(map[slots.Slot]*record, len(c.records))
	for s, rec := range c.records {
		if nv, ok := oldToNew[uint32(s)]; ok {
			s = slots.Slot(nv)
		}
		rekeyed[s] = rec
	}
	c.records = rekeyed
	c.mu.Unlock()

	for s := range rekeyed {
		addr := c.Table.Read(s)
		if addr == nil {
			continue
		}
		obj := (*object.Object)(addr)
		for _, f := range obj.FieldTable {
			if f == nil {
				continue
			}
			switch fv := f.Fvalue.(type) {
			case uint32:
				if nv, ok := oldToNew[fv]; ok {
					f.Fvalue = nv
				}
			case []uint32:
				for i, s := range fv {
					if nv, ok := oldToNew[s]; ok {
						fv[i] = nv
					}
				}
			}
		}
	}

	classloader.RemapStaticReferenceRoots(oldToNew)
}

// Stats returns the number of minor and major cycles run so far.
func (c *Collector) Stats() (minor, major int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minorCycles, c.majorCycles
}

// StartScheduler launches the dedicated GC goroutine §4.3 describes: it
// runs a collection every intervalMillis even with no allocation
// pressure at all (so a compute-bound thread that never calls Allocate
// still gets collected), and immediately whenever a mutator calls
// RequestGC. Calling StartScheduler twice without an intervening
// StopScheduler is a no-op.
func (c *Collector) StartScheduler(intervalMillis int64) {
	c.schedMu.Lock()
	if c.running {
		c.schedMu.Unlock()
		return
	}
	if intervalMillis <= 0 {
		intervalMillis = 1
	}
	c.running = true
	c.wake = make(chan struct{}, 1)
	c.stop = make(chan struct{})
	c.schedDone = make(chan struct{})
	c.schedMu.Unlock()

	go c.schedulerLoop(time.Duration(intervalMillis) * time.Millisecond)
}

// StopScheduler halts the background goroutine started by
// StartScheduler and waits for it to exit. Safe to call even if the
// scheduler was never started.
func (c *Collector) StopScheduler() {
	c.schedMu.Lock()
	if !c.running {
		c.schedMu.Unlock()
		return
	}
	c.running = false
	stop, done := c.stop, c.schedDone
	c.schedMu.Unlock()

	close(stop)
	<-done
}

// RequestGC asks the scheduler to run a collection at the given
// strength as soon as it next wakes, merging with whatever request is
// already pending (the stronger of the two, per §4.3's "concurrent
// requests merge to the strongest mode" rule) rather than queuing every
// call separately. A no-op if the scheduler has not been started.
func (c *Collector) RequestGC(mode GCMode) {
	c.schedMu.Lock()
	running := c.running
	if running {
		if !c.hasPending || mode > c.pendingMode {
			c.pendingMode = mode
			c.hasPending = true
		}
	}
	wake := c.wake
	c.schedMu.Unlock()
	if !running {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}

func (c *Collector) schedulerLoop(interval time.Duration) {
	defer close(c.schedDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.runScheduled(ModeNormal)
		case <-c.wake:
			c.schedMu.Lock()
			mode := c.pendingMode
			c.hasPending = false
			c.pendingMode = ModeNormal
			c.schedMu.Unlock()
			c.runScheduled(mode)
		}
	}
}

func (c *Collector) runScheduled(mode GCMode) {
	if mode == ModeForceMajor {
		c.MajorCollection()
	} else {
		c.MinorCollection()
	}
	trace.Trace("gc: scheduled collection complete")
}
