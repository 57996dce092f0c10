/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringPool is a process-wide intern table mapping strings
// (class names, descriptors, UTF-8 constants) to stable uint32 indexes,
// following jacobin's own stringPool package, which this repo's
// classloader and object packages already depend on for class-name
// identity.
package stringPool

import (
	"sync"

	"govm/types"
)

var (
	mu      sync.RWMutex
	strings_ []string
	index   map[string]uint32
)

func init() {
	reset()
}

// reset re-creates the pool with its two well-known entries pre-seeded
// at the indexes types.ObjectPoolStringIndex and
// types.StringPoolStringIndex.
func reset() {
	strings_ = make([]string, 0, 256)
	index = make(map[string]uint32, 256)
	// index 0 is reserved (mirrors the indirection table's null slot 0)
	strings_ = append(strings_, "")
	strings_ = append(strings_, "java/lang/Object")
	index["java/lang/Object"] = types.ObjectPoolStringIndex
	strings_ = append(strings_, "java/lang/String")
	index["java/lang/String"] = types.StringPoolStringIndex
}

// Reset clears the pool; used by tests that need a clean slate between
// runs in the same process.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	reset()
}

// GetStringIndex interns s, returning its existing index if already
// present or allocating a new one otherwise.
func GetStringIndex(s string) uint32 {
	mu.RLock()
	if idx, ok := index[s]; ok {
		mu.RUnlock()
		return idx
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if idx, ok := index[s]; ok { // re-check after acquiring the write lock
		return idx
	}
	idx := uint32(len(strings_))
	strings_ = append(strings_, s)
	index[s] = idx
	return idx
}

// GetStringPointer returns a pointer to the interned string at index,
// matching jacobin's own API shape (many call sites dereference it
// immediately).
func GetStringPointer(idx uint32) *string {
	mu.RLock()
	defer mu.RUnlock()
	if int(idx) >= len(strings_) {
		empty := ""
		return &empty
	}
	return &strings_[idx]
}

// GetStringPoolSize returns the number of interned strings, including
// the reserved null entry.
func GetStringPoolSize() uint32 {
	mu.RLock()
	defer mu.RUnlock()
	return uint32(len(strings_))
}
