/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package lock implements the re-entrant, wait/notify-capable object
// lock that backs monitorenter/monitorexit (§4.4 of the spec). It is
// grounded on jacobin's own per-object lock usage (object.Object
// carries one per instance). classloader.Class does not use this type:
// its initialization lock is a plain, non-reentrant sync.Mutex.
package lock

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNotOwner is wrapped into IllegalMonitorStateException territory by
// callers; it is returned when Unlock or Notify is attempted by a
// thread that does not hold the lock.
var ErrNotOwner = errors.New("current thread does not own this monitor")

// ReentrantLock is a recursive mutex with an associated wait/notify
// condition, one per object.
type ReentrantLock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64
	count int
}

// NewReentrantLock returns a ready-to-use lock, the kind object.Object
// keeps in its Mark field.
func NewReentrantLock() *ReentrantLock {
	l := &ReentrantLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Lock acquires the monitor on behalf of tid, blocking if another
// thread holds it. Re-entrant: a thread that already owns the lock
// just increments its hold count.
func (l *ReentrantLock) Lock(tid int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.owner != 0 && l.owner != tid {
		l.cond.Wait()
	}
	l.owner = tid
	l.count++
}

// TryLock attempts to acquire the monitor without blocking, returning
// whether it succeeded.
func (l *ReentrantLock) TryLock(tid int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != 0 && l.owner != tid {
		return false
	}
	l.owner = tid
	l.count++
	return true
}

// Unlock releases one level of the recursive hold. When the count
// reaches zero the monitor becomes free and one waiter (if any) is
// woken.
func (l *ReentrantLock) Unlock(tid int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != tid {
		return ErrNotOwner
	}
	l.count--
	if l.count == 0 {
		l.owner = 0
		l.cond.Signal()
	}
	return nil
}

// Owner returns the id of the thread currently holding the lock, or 0.
func (l *ReentrantLock) Owner() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// HoldCount returns the current thread's recursive hold count (0 if it
// does not hold the lock).
func (l *ReentrantLock) HoldCount(tid int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != tid {
		return 0
	}
	return l.count
}

// Wait releases the monitor (fully, remembering the hold count) and
// blocks until Notify/NotifyAll is called or millis elapse (0 means
// wait indefinitely), then re-acquires the monitor at the same hold
// count before returning. The caller must already own the lock.
func (l *ReentrantLock) Wait(tid int64, millis int64) error {
	l.mu.Lock()
	if l.owner != tid {
		l.mu.Unlock()
		return ErrNotOwner
	}
	savedCount := l.count
	l.owner = 0
	l.count = 0
	l.cond.Signal()

	woken := false
	var timer *time.Timer
	if millis > 0 {
		timer = time.AfterFunc(time.Duration(millis)*time.Millisecond, func() {
			l.mu.Lock()
			woken = true
			l.cond.Broadcast()
			l.mu.Unlock()
		})
		defer timer.Stop()
	}

	for l.owner != 0 && !woken {
		l.cond.Wait()
	}
	for l.owner != 0 && l.owner != tid {
		l.cond.Wait()
	}
	l.owner = tid
	l.count = savedCount
	l.mu.Unlock()
	return nil
}

// Notify wakes a single thread blocked in Wait on this monitor.
func (l *ReentrantLock) Notify(tid int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != tid {
		return ErrNotOwner
	}
	l.cond.Signal()
	return nil
}

// NotifyAll wakes every thread blocked in Wait on this monitor.
func (l *ReentrantLock) NotifyAll(tid int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != tid {
		return ErrNotOwner
	}
	l.cond.Broadcast()
	return nil
}
