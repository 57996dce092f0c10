/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's jvm package (run.go/instantiate.go/initializerBlock.go).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interp is the bytecode dispatcher: it turns a Class's parsed
// Code attribute into running frames, drives <clinit> the first time a
// class is touched, and implements the invoke*/athrow call-and-unwind
// mechanics JVMS 6.5 describes. It is the one package allowed to
// depend on every other package in the engine (classloader, object,
// frames, gc, gfunction, thread) since it is where they all meet.
package interp

import (
	"github.com/pkg/errors"

	"govm/classloader"
	"govm/excNames"
	"govm/frames"
	"govm/gc"
	"govm/gfunction"
	"govm/globals"
	"govm/object"
	"govm/slots"
	"govm/thread"
	"govm/trace"
)

// Engine bundles the collector every allocation and GC-triggering
// instruction goes through. A single Engine is created at startup and
// threaded through every frame's execution.
type Engine struct {
	GC *gc.Collector
}

var current *Engine

// Init wires interp into the rest of the engine: it builds the
// collector, loads the native-method table, and installs interp's
// throw/clinit entry points into globals so that classloader and
// object can call back up into interp without an import cycle.
func Init(maxHeap int64) (*Engine, error) {
	collector, err := gc.New(maxHeap)
	if err != nil {
		return nil, err
	}
	gfunction.LoadGfunctions()

	eng := &Engine{GC: collector}
	current = eng

	g := globals.GetGlobalRef()
	g.FuncThrowException = func(excClassName, msg string) error {
		return errors.New(excClassName + ": " + msg)
	}
	g.FuncRunClinit = func(class interface{}) error {
		klass, ok := class.(*classloader.Class)
		if !ok {
			return errors.New("FuncRunClinit: not a *classloader.Class")
		}
		return RunClinit(klass)
	}
	g.FuncRequestGC = func(mode int) {
		collector.RequestGC(gc.GCMode(mode))
	}

	collector.StartScheduler(g.GCIntervalMillis)
	return eng, nil
}

// Shutdown stops the collector's background scheduler goroutine. Tests
// that call Init repeatedly in the same process should call this during
// cleanup so scheduler goroutines don't accumulate across test cases.
func (e *Engine) Shutdown() {
	e.GC.StopScheduler()
}

// RunClinit drives a class's <clinit> (and every not-yet-run
// superclass's <clinit>, root first), following jacobin's own
// runInitializationBlock: the present class is appended to the chain
// last so its own <clinit> runs after every ancestor's, and a class
// already StatusInitialized or StatusInitializing is a no-op (the
// latter means we're in the middle of our own <clinit> recursively
// touching ourselves, which JVMS 5.5 explicitly allows without
// re-entering).
func RunClinit(klass *classloader.Class) error {
	klass.Lock()
	status := klass.Status()
	if status == classloader.StatusInitialized || status == classloader.StatusInitializing {
		klass.Unlock()
		return nil
	}
	klass.SetStatus(classloader.StatusInitializing)
	klass.Unlock()

	var chain []*classloader.Class
	cur := klass
	for {
		chain = append(chain, cur)
		if cur.Super == "" {
			break
		}
		super, err := classloader.LoadClassFromNameOnly(cur.Super)
		if err != nil {
			klass.SetStatus(classloader.StatusInErrorState)
			return err
		}
		if super.Status() == classloader.StatusInitialized {
			break
		}
		cur = super
	}

	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if c != klass && c.Status() == classloader.StatusInitialized {
			continue
		}
		m := c.GetMethod("<clinit>()V")
		if m == nil {
			c.SetStatus(classloader.StatusInitialized)
			continue
		}
		if err := runMethod(c, m, nil, nil); err != nil {
			c.SetStatus(classloader.StatusInErrorState)
			return err
		}
		c.SetStatus(classloader.StatusInitialized)
	}
	return nil
}

// runMethod runs m (either bytecode or a gfunction native) on a fresh
// thread-owned frame, with args already popped off the caller (args[0]
// is the receiver for an instance method). It returns the method's
// single return value, or nil for void, and propagates any pending
// exception as a Go error once the frame stack the method ran on is
// exhausted with no handler.
func runMethod(class *classloader.Class, m *classloader.Method, t *thread.ExecThread, args []frames.Cell) (interface{}, error) {
	if m.Access.Native || m.Code == nil {
		return runGfunction(class, m, t, args)
	}

	if t == nil {
		t = thread.NewExecThread(class.Name + "." + m.Name)
		defer thread.Unregister(t)
	}

	f := frames.CreateFrame(m.Code.MaxStack + 2)
	f.ClName = class.Name
	f.MethName = m.Name
	f.MethType = m.Desc
	f.CPool = &class.CP
	f.Code = m.Code.Code
	f.MaxLocals = m.Code.MaxLocals
	f.Locals = make([]frames.Cell, m.Code.MaxLocals)
	for i, c := range args {
		if i < len(f.Locals) {
			f.Locals[i] = c
		}
	}
	for _, eh := range m.Code.Exceptions {
		f.ExceptionTable = append(f.ExceptionTable, frames.ExceptionHandler{
			StartPC: eh.StartPc, EndPC: eh.EndPc, HandlerPC: eh.HandlerPc, CatchType: eh.CatchType,
		})
	}

	if err := frames.PushFrame(t.FrameStack, f); err != nil {
		return nil, err
	}
	ret, err := RunFrame(t, current)
	frames.PopFrame(t.FrameStack)
	return ret, err
}

// runGfunction dispatches a native method through the gfunction table,
// converting its Cell-typed args into the plain interface{} values
// GFunction expects and its interface{} result (or *GErrBlk) back into
// a Cell-compatible return value or a raised exception.
func runGfunction(class *classloader.Class, m *classloader.Method, t *thread.ExecThread, args []frames.Cell) (interface{}, error) {
	key := class.Name + "." + m.Name + m.Desc
	gm, ok := gfunction.MethodSignatures[key]
	if !ok {
		return nil, errors.New(excNames.UnsatisfiedLinkError + ": " + key)
	}

	converted := make([]interface{}, 0, len(args))
	for _, c := range args {
		converted = append(converted, cellToNative(c))
	}

	result := gm.GFunction(converted)
	if blk, ok := result.(*gfunction.GErrBlk); ok {
		return nil, errors.New(blk.ExceptionName + ": " + blk.ErrMsg)
	}
	if result == nil {
		return nil, nil
	}
	retDesc := returnDescriptor(m.Desc)
	return nativeToCell(result, retDesc), nil
}

// returnDescriptor extracts the return-type character(s) following the
// closing ')' of a method descriptor, per JVMS 4.3.3.
func returnDescriptor(desc string) string {
	for i := 0; i < len(desc); i++ {
		if desc[i] == ')' {
			return desc[i+1:]
		}
	}
	return "V"
}

// nativeToCell converts a gfunction result back into the Cell the
// dispatcher pushes onto the caller's operand stack, guided by the
// method's declared return descriptor since a bare int64/float64
// result is otherwise ambiguous between the JVM's int/long or
// float/double categories.
func nativeToCell(v interface{}, retDesc string) frames.Cell {
	switch retDesc {
	case "J":
		iv, _ := v.(int64)
		return frames.LongCell(iv)
	case "D":
		fv, _ := v.(float64)
		return frames.DoubleCell(fv)
	case "F":
		fv, _ := v.(float64)
		return frames.FloatCell(float32(fv))
	case "V":
		return frames.Cell{}
	default:
		switch tv := v.(type) {
		case int64:
			return frames.IntCell(int32(tv))
		case float64:
			return frames.FloatCell(float32(tv))
		case *object.Object:
			if current == nil {
				return frames.Null()
			}
			slot, err := current.GC.Allocate(tv)
			if err != nil {
				return frames.Null()
			}
			return frames.RefCell(uint32(slot))
		default:
			return frames.Null()
		}
	}
}

// cellToNative unwraps a Cell into the Go-native representation
// gfunction's uniform []interface{} argument convention expects:
// ints/longs/shorts/bytes/chars/booleans all surface as int64, floats
// and doubles as float64, and references as whatever *object.Object
// (or nil) the collector's indirection table resolves the slot to.
func cellToNative(c frames.Cell) interface{} {
	switch c.Tag {
	case frames.TagInt:
		return int64(c.Int())
	case frames.TagLong:
		return c.Long()
	case frames.TagFloat:
		return float64(c.Float())
	case frames.TagDouble:
		return c.Double()
	case frames.TagReference:
		if c.IsNull() {
			return nil
		}
		if current == nil {
			return nil
		}
		addr := current.GC.Table.Read(slots.Slot(c.Slot()))
		if addr == nil {
			return nil
		}
		return (*object.Object)(addr)
	default:
		return nil
	}
}

// RunMain loads entryClass, drives its <clinit> chain, builds the
// String[] args array main(String[]) expects, and runs it on a fresh
// thread. It returns the same "ExcClass: msg"-shaped error any other
// uncaught exception surfaces as, for the CLI entry point to report.
func RunMain(entryClass string, args []string) error {
	class, err := classloader.LoadClassFromNameOnly(entryClass)
	if err != nil {
		return err
	}
	if err := RunClinit(class); err != nil {
		return err
	}
	m := class.GetMethod("main([Ljava/lang/String;)V")
	if m == nil {
		return errors.New(excNames.NoSuchMethodError + ": " + entryClass + ".main([Ljava/lang/String;)V")
	}

	slotsArr := make([]uint32, len(args))
	for i, a := range args {
		strObj := object.StringObjectFromGoString(a)
		slot, err := current.GC.Allocate(strObj)
		if err != nil {
			return errors.New(excNames.OutOfMemoryError + ": " + err.Error())
		}
		slotsArr[i] = uint32(slot)
	}
	arrObj := newArrayObject("[Ljava/lang/String;", "[Ljava/lang/String;", slotsArr)
	argsSlot, err := current.GC.Allocate(arrObj)
	if err != nil {
		return errors.New(excNames.OutOfMemoryError + ": " + err.Error())
	}

	_, err = runMethod(class, m, nil, []frames.Cell{frames.RefCell(uint32(argsSlot))})
	return err
}

func init() {
	trace.Trace("interp: package loaded")
}
