/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader package (runtime class representation).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "sync"

// Status values for a loaded Class's lifecycle, per JVMS 5.5.
const (
	StatusLoaded = iota
	StatusInitializing
	StatusInitialized
	StatusInErrorState
)

// AccessFlags mirrors the boolean breakdown jacobin's ParsedClass keeps
// of a class's raw access_flags word.
type AccessFlags struct {
	Public     bool
	Final      bool
	Super      bool
	Interface  bool
	Abstract   bool
	Synthetic  bool
	Annotation bool
	Enum       bool
	Module     bool
}

// FieldAccessFlags is the field-level equivalent, per JVMS 4.5 Table 4.6-A.
type FieldAccessFlags struct {
	Public    bool
	Private   bool
	Protected bool
	Static    bool
	Final     bool
	Volatile  bool
	Transient bool
	Synthetic bool
	Enum      bool
}

// MethodAccessFlags is the method-level equivalent, per JVMS 4.6 Table 4.6-B.
type MethodAccessFlags struct {
	Public       bool
	Private      bool
	Protected    bool
	Static       bool
	Final        bool
	Synchronized bool
	Bridge       bool
	Varargs      bool
	Native       bool
	Abstract     bool
	Strict       bool
	Synthetic    bool
}

// Attr is a generic, uninterpreted class/field/method attribute: a name
// (CP UTF8 index) and its raw content, exactly as JVMS 4.7 leaves most
// attribute kinds for callers to interpret only if they care to.
type Attr struct {
	NameIndex uint16
	Content   []byte
}

// ExceptionHandlerEntry is one entry of a method's Code attribute
// exception table, per JVMS 4.7.3.
type ExceptionHandlerEntry struct {
	StartPc   int
	EndPc     int
	HandlerPc int
	CatchType uint16 // CP index of a ClassRef, or 0 for catch-all (finally)
}

// BootstrapMethod is one entry of the BootstrapMethods class attribute,
// per JVMS 4.7.23, consumed when resolving an invokedynamic call site.
type BootstrapMethod struct {
	MethodRef uint16 // CP index of a MethodHandle
	Args      []uint16
}

// CodeAttrib holds a method's parsed Code attribute (JVMS 4.7.3): the
// bytecode itself plus everything needed to execute and unwind through
// it.
type CodeAttrib struct {
	MaxStack   int
	MaxLocals  int
	Code       []byte
	Exceptions []ExceptionHandlerEntry
	Attributes []Attr
}

// Field is one runtime field declaration (not a field's per-instance
// value — see object.Field for that). ConstValue carries a
// ConstantValue attribute's already-resolved constant, if the field
// declared one (JVMS 4.7.2), used for static final field initialization.
type Field struct {
	Name        string
	Desc        string
	Access      FieldAccessFlags
	ConstValue  interface{}
	Attributes  []Attr

	// Offset and Size are assigned by the layout pass (class.go's
	// layoutFields) and recorded here only: object instantiation does
	// not read them, since an instance keeps its fields in a field
	// table keyed by name.
	Offset int
	Size   int
}

// Method is one runtime method declaration, including its parsed Code
// attribute if it has one (abstract/native methods do not).
type Method struct {
	Name       string
	Desc       string
	Access     MethodAccessFlags
	Code       *CodeAttrib
	Exceptions []uint16 // CP indexes of declared checked-exception classes
	Attributes []Attr
	Deprecated bool
}

// Class is the fully parsed, fully resolved-enough-to-execute runtime
// representation of one class file. It replaces jacobin's two-stage
// ParsedClass -> ClData pipeline with a single pass: the binary parser
// in classfile.go builds a Class directly, and the loader then runs the
// layout and linkage passes over it in place.
type Class struct {
	Name       string // internal (slash) form, e.g. java/lang/Object
	Super      string // "" only for java/lang/Object
	Interfaces []string

	SourceFile string
	Module     string
	Package    string

	Access AccessFlags

	Fields      []Field
	Methods     map[string]*Method // key: name + descriptor, e.g. "<init>()V"
	Bootstraps  []BootstrapMethod
	Attributes  []Attr

	CP CPool

	// InstanceFieldSize is the sum of the layout sizes (the byte widths
	// the loader passes to layoutFields) of this class's own instance
	// fields, not counting inherited fields (instantiation copies the
	// fields of every class in the superclass chain into one object-wide
	// field table).
	InstanceFieldSize int

	mu      sync.Mutex
	initMu  sync.Mutex
	status  int
	clinitWaiters int32

	// StaticFields holds this class's own static field values, keyed by
	// name. Populated at class-preparation time and mutated by putstatic
	// and by <clinit>.
	StaticFields map[string]*StaticField
}

// StaticField is the value slot for one static field of a Class.
type StaticField struct {
	Desc  string
	Value interface{}
}

// Status returns the class's current lifecycle status (§4.6).
func (c *Class) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetStatus transitions the class to status under the class's status
// mutex. interp.RunClinit makes the move into StatusInitializing while
// holding the initialization lock (Lock/Unlock); the later transitions
// it and the native String <clinit> make are done without it.
func (c *Class) SetStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// Lock/Unlock expose the per-class initialization lock, a mutex of its
// own, separate from the one Status/SetStatus take. interp.RunClinit
// holds it while it checks the status and moves the class to
// StatusInitializing, so two threads cannot both start the class's
// <clinit>. It is released before any <clinit> runs; a thread that
// then finds the class StatusInitializing returns at once, without
// waiting for that <clinit> to finish.
func (c *Class) Lock()   { c.initMu.Lock() }
func (c *Class) Unlock() { c.initMu.Unlock() }

// GetMethod looks up a method by name+descriptor on this class only
// (no superclass walk — callers needing virtual dispatch walk the
// superclass chain themselves via a Classloader).
func (c *Class) GetMethod(nameAndDesc string) *Method {
	return c.Methods[nameAndDesc]
}

// layoutFields assigns each declared instance field an Offset within
// this class's own field table, in descending order of the size
// sizeOf reports for the field's type (the loader passes
// util.SizeOfType's byte width, so the widest types come first),
// matching the packing
// jacobin's instantiate.go performs by field-table insertion order but
// made deterministic here so repeated loads of the same class produce
// the same layout.
func (c *Class) layoutFields(sizeOf func(desc string) int) {
	type idxSize struct {
		idx  int
		size int
	}
	order := make([]idxSize, 0, len(c.Fields))
	for i, f := range c.Fields {
		if f.Access.Static {
			continue
		}
		order = append(order, idxSize{i, sizeOf(f.Desc)})
	}
	// stable descending sort by size, keeping declaration order within a size class
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && order[j-1].size < order[j].size {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}
	offset := 0
	for _, e := range order {
		c.Fields[e.idx].Offset = offset
		c.Fields[e.idx].Size = e.size
		offset += e.size
	}
	c.InstanceFieldSize = offset
}
