/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package frames implements the Value Cell and the per-thread
// activation-record stack: operand stack and local-variable array, each
// cell carrying its own type tag so the collector can find every
// reference-typed slot at a safepoint.
package frames

import "math"

// Tag identifies the runtime category of a Cell, independent of its
// raw bit pattern, so that `dup`/`swap`/the GC root walk never have to
// guess from the bits alone.
type Tag uint8

const (
	TagInt Tag = iota
	TagLong
	TagFloat
	TagDouble
	TagReference
	TagReturnAddress
)

// IsCategory2 reports whether this tag is long/double. Unlike the real
// JVM, category-2 values here still occupy exactly one Cell (Bits holds
// the full 64-bit pattern regardless of tag) -- this only identifies
// the category for instructions whose behavior depends on it (e.g.
// dup2/pop2 matching the real bytecode's intent), not for slot
// counting.
func (t Tag) IsCategory2() bool { return t == TagLong || t == TagDouble }

// Cell is a tagged operand-stack/local-variable slot. Every value, of
// every category, occupies exactly one Cell -- Bits is wide enough to
// hold a long or double's full 64 bits directly, so there is no second
// placeholder cell the way the real JVM's two-slot convention requires.
type Cell struct {
	Tag  Tag
	Bits uint64 // raw bit pattern: int32/float32 32-bit pattern zero-extended into low 32 bits, int64/float64 bits, or a slot number for TagReference/TagReturnAddress
}

// Null is the canonical null reference cell (indirection-table slot 0).
func Null() Cell { return Cell{Tag: TagReference, Bits: 0} }

// IntCell, LongCell, FloatCell, DoubleCell, RefCell, ReturnAddrCell
// construct a tagged Cell from the Go-native representation of each
// JVM operand-stack category.
func IntCell(v int32) Cell    { return Cell{Tag: TagInt, Bits: uint64(uint32(v))} }
func LongCell(v int64) Cell   { return Cell{Tag: TagLong, Bits: uint64(v)} }
func FloatCell(v float32) Cell {
	return Cell{Tag: TagFloat, Bits: uint64(math.Float32bits(v))}
}
func DoubleCell(v float64) Cell { return Cell{Tag: TagDouble, Bits: math.Float64bits(v)} }
func RefCell(slot uint32) Cell  { return Cell{Tag: TagReference, Bits: uint64(slot)} }
func ReturnAddrCell(pc int) Cell {
	return Cell{Tag: TagReturnAddress, Bits: uint64(uint32(pc))}
}

func (c Cell) Int() int32      { return int32(uint32(c.Bits)) }
func (c Cell) Long() int64     { return int64(c.Bits) }
func (c Cell) Float() float32  { return math.Float32frombits(uint32(c.Bits)) }
func (c Cell) Double() float64 { return math.Float64frombits(c.Bits) }
func (c Cell) Slot() uint32    { return uint32(c.Bits) }
func (c Cell) IsNull() bool    { return c.Tag == TagReference && c.Bits == 0 }
