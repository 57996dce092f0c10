/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds the single Engine context the rest of the
// process reads its configuration from. The original C engine this was
// modeled on kept a classpath vector, a next-thread-id counter, and heap
// pointers as free-floating global state; this package is the one place
// that state lives, so that every other package reads it through
// GetGlobalRef() rather than reaching for ad hoc package vars.
package globals

import "sync"

// Default sizing. The heap and stack sizes must remain multiples of
// 4096 per the CLI spec; the GC interval is in milliseconds.
const (
	DefaultMaxHeap   int64 = 64 * 1024 * 1024
	DefaultStackSize int64 = 1 * 1024 * 1024
	DefaultGCIntervalMillis int64 = 500
)

// Globals is the engine-wide configuration and identity context.
type Globals struct {
	JacobinName string
	Classpath   []string
	StartingJar string

	MaxHeap          int64
	StackSize        int64
	GCIntervalMillis int64

	StartingClass string
	AppArgs       []string

	TraceLevel  int
	StrictJDK   bool

	// JvmFrameStackShown prevents the frame-stack dump printed on an
	// uncaught exception from being shown more than once.
	JvmFrameStackShown bool

	// FuncThrowException lets packages below interp (classloader, object)
	// raise a JVM exception without importing interp, the same seam
	// jacobin's own Globals.FuncThrowException closes. interp.Init
	// installs the real implementation at startup.
	FuncThrowException func(excClassName, msg string) error

	// FuncRunClinit lets classloader drive <clinit> execution (which
	// requires pushing a bytecode frame) without importing interp.
	// class is passed as interface{} to avoid the same cycle; interp's
	// installed function type-asserts it back to *classloader.Class.
	FuncRunClinit func(class interface{}) error

	// FuncRequestGC lets gfunction's java/lang/System.gc() binding wake
	// the collector's scheduler without gfunction importing gc/interp.
	// mode is an int rather than gc.GCMode to avoid the same import
	// cycle; interp.Init installs the real implementation, converting
	// it back to gc.GCMode.
	FuncRequestGC func(mode int)

	mu           sync.Mutex
	nextThreadID int64
}

var (
	globalRef     *Globals
	globalRefOnce sync.Once
)

// InitGlobals (re)initializes the single global context. It is safe to
// call more than once (primarily from tests), unlike a sync.Once-guarded
// singleton, because each run of the engine needs a clean slate.
func InitGlobals(name string) *Globals {
	g := &Globals{
		JacobinName:      name,
		MaxHeap:          DefaultMaxHeap,
		StackSize:        DefaultStackSize,
		GCIntervalMillis: DefaultGCIntervalMillis,
		nextThreadID:     1,
	}
	globalRef = g
	globalRefOnce = sync.Once{}
	return g
}

// GetGlobalRef returns the process-wide Globals, lazily creating a
// default instance if InitGlobals was never called (mainly so that
// package-level tests that don't care about configuration still work).
func GetGlobalRef() *Globals {
	globalRefOnce.Do(func() {
		if globalRef == nil {
			globalRef = InitGlobals("govm")
		}
	})
	if globalRef == nil {
		globalRef = InitGlobals("govm")
	}
	return globalRef
}

// NextThreadID hands out the next monotonically increasing thread
// identifier; 0 is reserved and never returned.
func (g *Globals) NextThreadID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextThreadID
	g.nextThreadID++
	return id
}

// AddClasspathEntry appends a directory to the classpath search list.
func (g *Globals) AddClasspathEntry(dir string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Classpath = append(g.Classpath, dir)
}

// ClasspathEntries returns a copy of the current classpath list.
func (g *Globals) ClasspathEntries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.Classpath))
	copy(out, g.Classpath)
	return out
}
