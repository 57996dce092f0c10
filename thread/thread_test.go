/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"testing"
	"time"

	"govm/globals"

	"github.com/stretchr/testify/assert"
)

func TestNewExecThreadRegistersAndAssignsID(t *testing.T) {
	globals.InitGlobals("govm-test")
	t1 := NewExecThread("t1")
	defer Unregister(t1)

	found := false
	for _, reg := range All() {
		if reg.ID == t1.ID {
			found = true
		}
	}
	assert.True(t, found)
	assert.NotNil(t, t1.FrameStack)
}

func TestUnregisterRemovesThread(t *testing.T) {
	globals.InitGlobals("govm-test")
	t1 := NewExecThread("t2")
	Unregister(t1)

	for _, reg := range All() {
		assert.NotEqual(t, t1.ID, reg.ID)
	}
}

func TestTwoThreadsGetDistinctIDs(t *testing.T) {
	globals.InitGlobals("govm-test")
	a := NewExecThread("a")
	b := NewExecThread("b")
	defer Unregister(a)
	defer Unregister(b)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCheckSafepointNoopWithoutRequest(t *testing.T) {
	globals.InitGlobals("govm-test")
	tr := NewExecThread("safepoint")
	defer Unregister(tr)
	tr.CheckSafepoint() // must return immediately, not block
	assert.Equal(t, StatusRunnable, tr.Status())
}

func TestRequestAndReleaseSafepointWithNoThreads(t *testing.T) {
	// With no registered threads (after unregistering everything this
	// test created), RequestSafepoint must not hang waiting for a
	// parked thread that will never exist.
	globals.InitGlobals("govm-test")
	done := make(chan struct{})
	go func() {
		RequestSafepoint()
		ReleaseSafepoint()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestSafepoint did not return with no registered threads")
	}
}
