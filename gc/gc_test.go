/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"testing"
	"time"

	"govm/frames"
	"govm/object"
	"govm/slots"
	"govm/thread"

	"github.com/stretchr/testify/assert"
)

func TestAllocateReturnsReadableSlot(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)

	obj := object.MakeEmptyObject()
	s, err := c.Allocate(obj)
	assert.NoError(t, err)
	assert.NotEqual(t, slots.NullSlot, s)
	assert.Equal(t, obj, (*object.Object)(c.Table.Read(s)))
}

func TestMinorCollectionFreesUnreachableObject(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)

	garbage := object.MakeEmptyObject()
	s, err := c.Allocate(garbage)
	assert.NoError(t, err)

	c.MinorCollection()

	assert.Nil(t, c.Table.Read(s))
}

func TestMinorCollectionKeepsRootReachableObject(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)

	obj := object.MakeEmptyObject()
	s, err := c.Allocate(obj)
	assert.NoError(t, err)

	tr := thread.NewExecThread("gc-root-test")
	defer thread.Unregister(tr)
	f := frames.CreateFrame(4)
	f.MaxLocals = 1
	assert.NoError(t, f.SetLocal(0, frames.RefCell(uint32(s))))
	assert.NoError(t, frames.PushFrame(tr.FrameStack, f))

	c.MinorCollection()

	assert.NotNil(t, c.Table.Read(s))
}

func TestMinorCollectionKeepsTransitivelyReachableObject(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)

	child := object.MakeEmptyObject()
	childSlot, err := c.Allocate(child)
	assert.NoError(t, err)

	parent := object.MakeEmptyObject()
	parent.FieldTable["next"] = &object.Field{Ftype: "Ljava/lang/Object;", Fvalue: uint32(childSlot)}
	parentSlot, err := c.Allocate(parent)
	assert.NoError(t, err)

	tr := thread.NewExecThread("gc-transitive-test")
	defer thread.Unregister(tr)
	f := frames.CreateFrame(4)
	f.MaxLocals = 1
	assert.NoError(t, f.SetLocal(0, frames.RefCell(uint32(parentSlot))))
	assert.NoError(t, frames.PushFrame(tr.FrameStack, f))

	c.MinorCollection()

	assert.NotNil(t, c.Table.Read(parentSlot))
	assert.NotNil(t, c.Table.Read(childSlot))
}

func TestMajorCollectionRemapsSurvivingReferences(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)

	garbage := object.MakeEmptyObject()
	_, err = c.Allocate(garbage)
	assert.NoError(t, err)

	survivor := object.MakeEmptyObject()
	survivorSlot, err := c.Allocate(survivor)
	assert.NoError(t, err)

	tr := thread.NewExecThread("gc-major-test")
	defer thread.Unregister(tr)
	f := frames.CreateFrame(4)
	f.MaxLocals = 1
	assert.NoError(t, f.SetLocal(0, frames.RefCell(uint32(survivorSlot))))
	assert.NoError(t, frames.PushFrame(tr.FrameStack, f))

	c.MajorCollection()

	// The compaction pass may have renumbered survivorSlot; the local
	// variable cell that referenced it must have been rewritten to
	// match, and must still resolve to the same object.
	cell, err := f.GetLocal(0)
	assert.NoError(t, err)
	assert.False(t, cell.IsNull())
	addr := c.Table.Read(slots.Slot(cell.Slot()))
	assert.Equal(t, survivor, (*object.Object)(addr))
}

func TestStatsCountsCycles(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)
	minor, major := c.Stats()
	assert.Equal(t, int64(0), minor)
	assert.Equal(t, int64(0), major)

	c.MinorCollection()
	c.MajorCollection()

	minor, major = c.Stats()
	assert.Equal(t, int64(1), minor)
	assert.Equal(t, int64(1), major)
}

func TestNewRejectsUnalignedHeap(t *testing.T) {
	_, err := New(1000)
	assert.Error(t, err)
}

// The scheduler must run a collection on its own, driven only by its
// interval ticker -- a compute-bound mutator that never calls Allocate
// must still eventually get collected.
func TestSchedulerRunsOnElapsedInterval(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)
	c.StartScheduler(5)
	defer c.StopScheduler()

	assert.Eventually(t, func() bool {
		minor, _ := c.Stats()
		return minor > 0
	}, time.Second, 5*time.Millisecond)
}

// A mutator's RequestGC(ModeForceMajor) must produce a major collection
// without waiting for the next tick.
func TestRequestGCForceMajorRunsPromptly(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)
	c.StartScheduler(time.Hour.Milliseconds())
	defer c.StopScheduler()

	c.RequestGC(ModeForceMajor)

	assert.Eventually(t, func() bool {
		_, major := c.Stats()
		return major > 0
	}, time.Second, 5*time.Millisecond)
}

// Two concurrent requests must merge to the stronger mode: a pending
// ModeMinorOnly request upgraded by a ModeForceMajor request before the
// scheduler wakes must run a major collection, not a minor one.
func TestRequestGCMergesToStrongestPendingMode(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)

	c.schedMu.Lock()
	c.running = true
	c.schedMu.Unlock()

	c.RequestGC(ModeMinorOnly)
	c.RequestGC(ModeForceMajor)

	c.schedMu.Lock()
	mode := c.pendingMode
	c.schedMu.Unlock()
	assert.Equal(t, ModeForceMajor, mode)
}

func TestStopSchedulerIsIdempotentWithoutStart(t *testing.T) {
	c, err := New(64 * 1024 * 1024)
	assert.NoError(t, err)
	c.StopScheduler()
}
