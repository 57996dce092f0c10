/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's cli.go (command-line and environment-variable
 * option handling).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"govm/globals"
	"govm/log"
)

const version = "0.1.0"

// getEnvArgs collects the JVM-recognized environment variables, in the
// same precedence order java(1) documents, and joins them with a
// single space so they can be merged into the argument list ahead of
// whatever was typed on the command line.
func getEnvArgs() string {
	var parts []string
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"} {
		if v := os.Getenv(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// HandleCli parses args (argv[0] is the program name) plus whatever
// the environment variables contributed, populating g and returning an
// error only for a malformed option; -help and -showversion print their
// text and return at once, leaving g.StartingClass empty, so the caller
// does not proceed to class execution.
func HandleCli(args []string, g *globals.Globals) error {
	full := args[1:]
	if env := getEnvArgs(); env != "" {
		full = append(strings.Fields(env), full...)
	}

	for i := 0; i < len(full); i++ {
		arg := full[i]
		switch {
		case arg == "-help" || arg == "-h" || arg == "--help":
			showUsage()
			return nil
		case arg == "-showversion" || arg == "-version":
			showVersion()
			return nil
		case arg == "-verbose" || arg == "-verbose:class":
			_ = log.SetLogLevel(log.FINE)
		case strings.HasPrefix(arg, "-Xmx"):
			n, err := parseMemSize(arg[len("-Xmx"):])
			if err != nil {
				return fmt.Errorf("invalid -Xmx value: %s", arg)
			}
			g.MaxHeap = n
		case strings.HasPrefix(arg, "-Xss"):
			n, err := parseMemSize(arg[len("-Xss"):])
			if err != nil {
				return fmt.Errorf("invalid -Xss value: %s", arg)
			}
			g.StackSize = n
		case strings.HasPrefix(arg, "-Xgci"):
			n, err := strconv.ParseInt(arg[len("-Xgci"):], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid -Xgci value: %s", arg)
			}
			g.GCIntervalMillis = n
		case arg == "-cp" || arg == "-classpath" || arg == "--class-path":
			if i+1 >= len(full) {
				return fmt.Errorf("%s requires an argument", arg)
			}
			i++
			for _, dir := range strings.Split(full[i], string(os.PathListSeparator)) {
				if dir != "" {
					g.AddClasspathEntry(dir)
				}
			}
		case strings.HasPrefix(arg, "-classpath="):
			for _, dir := range strings.Split(arg[len("-classpath="):], string(os.PathListSeparator)) {
				if dir != "" {
					g.AddClasspathEntry(dir)
				}
			}
		case arg == "-jar":
			if i+1 >= len(full) {
				return fmt.Errorf("-jar requires an argument")
			}
			i++
			g.StartingJar = full[i]
		case strings.HasPrefix(arg, "-"):
			// unrecognized option: tolerated silently, matching the
			// teacher's own lenient handling of JVM options this engine
			// doesn't implement (e.g. -Dprop=value, -ea).
		default:
			g.StartingClass = arg
			g.AppArgs = full[i+1:]
			i = len(full)
		}
	}
	return nil
}

// parseMemSize accepts a bare byte count or one suffixed with k/K, m/M,
// g/G, per the -Xmx/-Xss argument grammar.
func parseMemSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}

func showUsage() {
	fmt.Fprintln(os.Stderr, "Usage: govm [options] class [args...]")
	fmt.Fprintln(os.Stderr, "       govm [options] -jar jarfile [args...]")
	fmt.Fprintln(os.Stderr, "where options include:")
	fmt.Fprintln(os.Stderr, "  -cp <dirs>        application classpath, "+string(os.PathListSeparator)+"-separated")
	fmt.Fprintln(os.Stderr, "  -Xmx<size>        maximum heap size")
	fmt.Fprintln(os.Stderr, "  -Xss<size>        thread stack size")
	fmt.Fprintln(os.Stderr, "  -Xgci<ms>         minor GC check interval, in milliseconds")
	fmt.Fprintln(os.Stderr, "  -verbose          enable debug-level logging")
	fmt.Fprintln(os.Stderr, "  -showversion      print version information and exit")
	fmt.Fprintln(os.Stderr, "  -help             print this message and exit")
}

func showVersion() {
	fmt.Fprintln(os.Stderr, "govm v."+version)
}

func showCopyright() {
	fmt.Println("govm -- a standalone JVM class-file execution engine")
	fmt.Println("Copyright (c) 2026. All rights reserved.")
}
