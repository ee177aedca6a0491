// Package logger provides console logging for quarry.
//
// Debug, Info and Section output is only written in verbose mode (--verbose),
// where it traces the retrieval and indexing pipelines. Warnings are always
// written unless quiet mode (--quiet) is enabled, because they report data
// that was skipped or degraded.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	quiet      bool
	timestamps bool
	output     io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetQuiet suppresses warnings. Verbose output is unaffected.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetTimestamps prefixes every line with the local time.
// Used by long-running commands (serve, schedule).
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("[DEBUG] ", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("[INFO] ", format, args...)
	}
}

// Warn prints a warning unless quiet mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !quiet {
		write("[WARN] ", format, args...)
	}
}

// write assumes mu is held.
func write(level, format string, args ...any) {
	prefix := level
	if timestamps {
		prefix = time.Now().Format("2006-01-02 15:04:05") + " " + level
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
