/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"os"
	"time"

	"govm/gc"
	"govm/globals"
)

func Load_Lang_System() {

	MethodSignatures["java/lang/System.registerNatives()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/lang/System.currentTimeMillis()J"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  systemCurrentTimeMillis,
		}

	MethodSignatures["java/lang/System.nanoTime()J"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  systemNanoTime,
		}

	MethodSignatures["java/lang/System.exit(I)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  systemExit,
		}

	MethodSignatures["java/lang/System.gc()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  systemGC,
		}
}

// "java/lang/System.currentTimeMillis()J"
func systemCurrentTimeMillis(params []interface{}) interface{} {
	return time.Now().UnixMilli()
}

// "java/lang/System.nanoTime()J"
func systemNanoTime(params []interface{}) interface{} {
	return time.Now().UnixNano()
}

// "java/lang/System.exit(I)V" -- params[0] is the requested status
// code; the interpreter has no process-lifecycle hook of its own, so
// this calls os.Exit directly rather than unwinding every Go frame on
// the call stack first, matching the JVM's own abrupt-exit semantics.
func systemExit(params []interface{}) interface{} {
	code, _ := params[0].(int64)
	os.Exit(int(code))
	return nil
}

// "java/lang/System.gc()V" -- a suggestion, not a command, per the JDK's
// own contract: this wakes the collector's dedicated scheduler goroutine
// (see gc.Collector.RequestGC) at ModeForceMajor rather than running a
// collection synchronously on the calling thread.
func systemGC([]interface{}) interface{} {
	if req := globals.GetGlobalRef().FuncRequestGC; req != nil {
		req(int(gc.ModeForceMajor))
	}
	return nil
}
