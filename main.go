/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's main.go (process entry point).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"
	"strings"

	"govm/classloader"
	"govm/globals"
	"govm/interp"
	"govm/log"
	"govm/shutdown"
	"govm/trace"
)

func main() {
	g := globals.InitGlobals("govm")
	log.Init()

	if err := HandleCli(os.Args, g); err != nil {
		fmt.Fprintln(os.Stderr, "govm: "+err.Error())
		shutdown.Exit(shutdown.JVM_EXCEPTION)
	}
	if g.StartingClass == "" && g.StartingJar == "" {
		// HandleCli already printed usage/version for -help/-showversion;
		// a bare invocation with neither a class nor a -jar falls through
		// here only when no argument at all was given.
		if len(os.Args) <= 1 {
			showUsage()
		}
		shutdown.Exit(shutdown.OK)
	}

	entryClass := g.StartingClass
	if g.StartingJar != "" {
		name, err := mainClassFromJar(g.StartingJar)
		if err != nil {
			fmt.Fprintln(os.Stderr, "govm: "+err.Error())
			shutdown.Exit(shutdown.JVM_EXCEPTION)
		}
		entryClass = name
		g.AddClasspathEntry(g.StartingJar)
	}
	entryClass = strings.ReplaceAll(entryClass, ".", "/")

	if err := classloader.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "govm: "+err.Error())
		shutdown.Exit(shutdown.JVM_EXCEPTION)
	}
	if _, err := interp.Init(g.MaxHeap); err != nil {
		fmt.Fprintln(os.Stderr, "govm: "+err.Error())
		shutdown.Exit(shutdown.JVM_EXCEPTION)
	}

	trace.Trace("govm: starting " + entryClass)
	if err := interp.RunMain(entryClass, g.AppArgs); err != nil {
		fmt.Fprintln(os.Stderr, "Exception in thread \"main\" "+err.Error())
		shutdown.Exit(shutdown.UNHANDLED_EXCEPTION)
	}
	shutdown.Exit(shutdown.OK)
}

// mainClassFromJar is a placeholder for -jar support: this engine has
// no zip/jar reader of its own yet (see DESIGN.md), so a -jar argument
// is accepted for command-line compatibility but always fails loudly
// rather than silently doing the wrong thing.
func mainClassFromJar(jarPath string) (string, error) {
	return "", fmt.Errorf("-jar is not supported: %s (no archive reader wired; run the class directly)", jarPath)
}
