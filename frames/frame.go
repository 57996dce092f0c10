/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"container/list"

	"github.com/pkg/errors"
)

// Frame is one activation record: the operand stack, local-variable
// array, and bookkeeping the dispatcher needs to run a single method.
// Frames are chained via a container/list.List per thread (the same
// approach jacobin's own jvm package uses for its frame stack,
// threaded explicitly here through interp instead of a package global).
type Frame struct {
	ClName   string
	MethName string
	MethType string
	CPool    interface{} // *classloader.CPool; kept as interface{} to avoid an import cycle with classloader
	Code     []byte
	PC       int

	Locals    []Cell
	MaxLocals int

	OpStack   []Cell
	MaxStack  int

	// ExceptionTable is a copy of the method's exception handlers,
	// converted field for field from classloader.ExceptionHandlerEntry
	// so the dispatcher's unwind logic (interp package) can walk it
	// without an import cycle.
	ExceptionTable []ExceptionHandler
}

// ExceptionHandler mirrors classloader's exception-table entry shape.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType uint16 // constant-pool index, or 0 for finally/catch-all
}

// CreateFrame allocates a new, empty Frame whose operand stack can hold
// up to maxStack cells.
func CreateFrame(maxStack int) *Frame {
	return &Frame{
		MaxStack: maxStack,
		OpStack:  make([]Cell, 0, maxStack),
	}
}

// PushFrame pushes f onto the front of the thread's frame list (the
// front is the "current" frame, matching jacobin's own
// frames.PushFrame/PopFrame ordering).
func PushFrame(fs *list.List, f *Frame) error {
	if fs == nil {
		return errors.New("PushFrame: nil frame stack")
	}
	fs.PushFront(f)
	return nil
}

// PopFrame removes and returns the current (front) frame.
func PopFrame(fs *list.List) (*Frame, error) {
	if fs == nil || fs.Len() == 0 {
		return nil, errors.New("PopFrame: empty frame stack")
	}
	e := fs.Front()
	fs.Remove(e)
	return e.Value.(*Frame), nil
}

// PeekFrame returns the current frame without removing it.
func PeekFrame(fs *list.List) *Frame {
	if fs == nil || fs.Len() == 0 {
		return nil
	}
	return fs.Front().Value.(*Frame)
}

// Push pushes a cell onto the operand stack, returning an error if
// doing so would exceed MaxStack (the spec's invariant that operand
// stack growth never exceeds max_stack).
func (f *Frame) Push(c Cell) error {
	if len(f.OpStack) >= f.MaxStack {
		return errors.Errorf("operand stack overflow in %s.%s (max_stack=%d)", f.ClName, f.MethName, f.MaxStack)
	}
	f.OpStack = append(f.OpStack, c)
	return nil
}

// Pop removes and returns the top operand-stack cell.
func (f *Frame) Pop() (Cell, error) {
	n := len(f.OpStack)
	if n == 0 {
		return Cell{}, errors.Errorf("operand stack underflow in %s.%s", f.ClName, f.MethName)
	}
	c := f.OpStack[n-1]
	f.OpStack = f.OpStack[:n-1]
	return c, nil
}

// PeekTop returns the top operand-stack cell without removing it.
func (f *Frame) PeekTop() (Cell, error) {
	n := len(f.OpStack)
	if n == 0 {
		return Cell{}, errors.Errorf("operand stack underflow (peek) in %s.%s", f.ClName, f.MethName)
	}
	return f.OpStack[n-1], nil
}

// Depth returns the current operand-stack height in cells.
func (f *Frame) Depth() int { return len(f.OpStack) }

// SetLocal writes c into local variable index, growing the locals
// array if this is the first write at or beyond its current length
// (methods declare MaxLocals up front, but frames are built
// incrementally in the teacher's own style).
func (f *Frame) SetLocal(index int, c Cell) error {
	if index < 0 || index >= f.MaxLocals {
		return errors.Errorf("local variable index %d out of range (max_locals=%d)", index, f.MaxLocals)
	}
	for len(f.Locals) <= index {
		f.Locals = append(f.Locals, Cell{})
	}
	f.Locals[index] = c
	return nil
}

// GetLocal reads local variable index.
func (f *Frame) GetLocal(index int) (Cell, error) {
	if index < 0 || index >= f.MaxLocals {
		return Cell{}, errors.Errorf("local variable index %d out of range (max_locals=%d)", index, f.MaxLocals)
	}
	if index >= len(f.Locals) {
		return Cell{}, nil
	}
	return f.Locals[index], nil
}
