/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader.go (registry and loader entry points).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"govm/excNames"
	"govm/globals"
	"govm/trace"
	"govm/util"
)

// Classloader holds the classes loaded through it, each keyed by
// internal class name. jacobin's own bootstrap/extension/app split is
// kept for parity: classes found earlier in the chain shadow classes
// of the same name found later, resolved by walking Parent.
type Classloader struct {
	Name       string
	Parent     string
	ClassCount int
}

// AppCL is the application classloader, which loads classes named on
// the command line and everything they transitively reference.
var AppCL Classloader

// BootstrapCL is the classloader that loads the classes bundled next to
// the engine itself. cli.go has no option that changes where it looks.
var BootstrapCL Classloader

var (
	methAreaLock sync.RWMutex
	methArea     map[string]*Class
)

// cfe is the error helper for the Class Format Error family, matching
// jacobin's own cfe(): it prefixes the message and records the calling
// file/line so a malformed-class bug report points straight at the
// parsing routine that caught it.
func cfe(msg string) error {
	errMsg := "Class Format Error: " + msg
	pc, _, _, ok := runtime.Caller(1)
	if ok {
		fn := runtime.FuncForPC(pc)
		fileName, fileLine := fn.FileLine(pc)
		errMsg = errMsg + "\n  detected by file: " + filepath.Base(fileName) +
			", line: " + strconv.Itoa(fileLine)
	}
	trace.Error(errMsg)
	return errors.New(errMsg)
}

// CFE is the exported form, used by the format-checking pass in
// formatCheck.go.
func CFE(msg string) error { return cfe(msg) }

// Init prepares the bootstrap and application classloaders and the
// method area. It does not attempt to preload any classes: unlike
// jacobin's JDK-bundled LoadBaseClasses (which walks an entire
// java.base.jmod archive), this engine loads strictly on demand from
// the configured classpath, since it has no JDK image to draw from.
func Init() error {
	BootstrapCL.Name = "bootstrap"
	BootstrapCL.Parent = ""
	BootstrapCL.ClassCount = 0

	AppCL.Name = "app"
	AppCL.Parent = "bootstrap"
	AppCL.ClassCount = 0

	methAreaLock.Lock()
	methArea = make(map[string]*Class)
	methAreaLock.Unlock()
	return nil
}

// MethAreaFetch returns the already-loaded class named name, or nil.
func MethAreaFetch(name string) *Class {
	methAreaLock.RLock()
	defer methAreaLock.RUnlock()
	return methArea[name]
}

// MethAreaInsert records class under name, overwriting any previous
// entry (used when a class transitions from loaded to a later stage in
// place, since Class itself carries mutable lifecycle state).
func MethAreaInsert(name string, class *Class) {
	methAreaLock.Lock()
	defer methAreaLock.Unlock()
	methArea[name] = class
}

// GetCountOfLoadedClasses returns the number of classes loaded so far
// across every classloader (bootstrap + app), mirroring jacobin's
// per-loader counter but summed, since this engine shares one method
// area.
func GetCountOfLoadedClasses() int {
	methAreaLock.RLock()
	defer methAreaLock.RUnlock()
	return len(methArea)
}

// LoadClassFromNameOnly loads the named class (internal/slash form),
// searching the configured classpath, then recursively loads its
// superclass chain up to java/lang/Object. It returns immediately if
// the class is already resident.
func LoadClassFromNameOnly(name string) (*Class, error) {
	if name == "" {
		return nil, cfe("LoadClassFromNameOnly: empty class name")
	}

	className := name
	for {
		if existing := MethAreaFetch(className); existing != nil {
			if className == name {
				return existing, nil
			}
			break
		}

		class, err := loadFromClasspath(className)
		if err != nil {
			errMsg := fmt.Sprintf("LoadClassFromNameOnly: %s: %v", className, err)
			trace.Error(errMsg)
			if globals.GetGlobalRef().FuncThrowException != nil {
				_ = globals.GetGlobalRef().FuncThrowException(excNames.ClassNotFoundException, errMsg)
			}
			return nil, errors.New(errMsg)
		}
		MethAreaInsert(className, class)

		if className == name {
			if class.Super == "" { // java/lang/Object has no superclass
				return class, nil
			}
		}
		if class.Super == "" || MethAreaFetch(class.Super) != nil {
			break
		}
		className = class.Super
	}
	return MethAreaFetch(name), nil
}

// loadFromClasspath searches every configured classpath directory in
// order for name+".class" and parses the first match found.
func loadFromClasspath(name string) (*Class, error) {
	rel := util.ConvertInternalClassNameToFilename(name)
	for _, dir := range globals.GetGlobalRef().ClasspathEntries() {
		candidate := filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err == nil {
			return LoadClassFromFile(candidate)
		}
	}
	// also try the filename as given, relative to the working directory
	if _, err := os.Stat(rel); err == nil {
		return LoadClassFromFile(rel)
	}
	return nil, fmt.Errorf("class %q not found on classpath", name)
}

// LoadClassFromFile reads fname off disk and parses it into a Class,
// inserting the result into the method area under its self-declared
// name (which need not match fname).
func LoadClassFromFile(fname string) (*Class, error) {
	filename := fname
	if !strings.HasSuffix(filename, ".class") {
		filename = filename + ".class"
	}
	rawBytes, err := os.ReadFile(filename)
	if err != nil {
		errMsg := fmt.Sprintf("LoadClassFromFile: cannot read %s: %v", filename, err)
		trace.Error(errMsg)
		if globals.GetGlobalRef().FuncThrowException != nil {
			_ = globals.GetGlobalRef().FuncThrowException(excNames.ClassNotFoundException, errMsg)
		}
		return nil, errors.New(errMsg)
	}
	trace.Trace("LoadClassFromFile: read " + filename)
	return ParseAndPostClass(filename, rawBytes)
}

// ParseAndPostClass parses rawBytes, format-checks the result, and (on
// success) posts it to the method area.
func ParseAndPostClass(filename string, rawBytes []byte) (*Class, error) {
	trace.Trace("ParseAndPostClass: parsing " + filename)
	class, err := parseClass(rawBytes)
	if err != nil {
		trace.Error("ParseAndPostClass: " + filename + ": " + err.Error())
		return nil, err
	}

	if err := formatCheckClass(class); err != nil {
		trace.Error("ParseAndPostClass: format check failed for " + filename + ": " + err.Error())
		return nil, err
	}

	MethAreaInsert(class.Name, class)
	AppCL.ClassCount++
	trace.Trace("ParseAndPostClass: " + filename + " loaded as " + class.Name)
	return class, nil
}

// normalizeClassReference converts a field/array-style class reference
// ("[Ljava/lang/String;" or "[[I") into a bare class name, or "" if ref
// names a primitive array (which has no corresponding loadable class).
func normalizeClassReference(ref string) string {
	if strings.HasPrefix(ref, "[L") {
		trimmed := strings.TrimPrefix(ref, "[L")
		return strings.TrimSuffix(trimmed, ";")
	}
	if strings.HasPrefix(ref, "[") {
		return ""
	}
	return ref
}

// StaticReferenceRoots returns every reference-typed static field value
// across every loaded class, as indirection-table slot numbers, for
// the collector's root-set scan. Non-reference statics and unset
// (nil) reference statics are skipped.
func StaticReferenceRoots() []uint32 {
	methAreaLock.RLock()
	defer methAreaLock.RUnlock()

	var roots []uint32
	for _, class := range methArea {
		roots = append(roots, lo.FilterMap(lo.Values(class.StaticFields),
			func(sf *StaticField, _ int) (uint32, bool) {
				if sf == nil || len(sf.Desc) == 0 || (sf.Desc[0] != 'L' && sf.Desc[0] != '[') {
					return 0, false
				}
				slot, ok := sf.Value.(uint32)
				return slot, ok && slot != 0
			})...)
	}
	return roots
}

// RemapStaticReferenceRoots rewrites every reference-typed static field
// whose slot number appears in oldToNew, following a collector
// compaction pass that renumbered the indirection table. Called by the
// collector immediately after slots.Table.Compact(); never by a
// mutator directly.
func RemapStaticReferenceRoots(oldToNew map[uint32]uint32) {
	methAreaLock.RLock()
	defer methAreaLock.RUnlock()

	for _, class := range methArea {
		for _, sf := range class.StaticFields {
			if len(sf.Desc) == 0 || (sf.Desc[0] != 'L' && sf.Desc[0] != '[') {
				continue
			}
			if slot, ok := sf.Value.(uint32); ok {
				if nv, remapped := oldToNew[slot]; remapped {
					sf.Value = nv
				}
			}
		}
	}
}
