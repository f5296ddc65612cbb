package config

import (
	"fmt"
	"io"
	"sync"
)

// progName prefixes every diagnostic line.
const progName = "proctor"

// Diagnostics is the user-facing side channel for notes, warnings, and
// errors that are not part of a test's own output. Lines have the form
// "proctor: <kind>: <message>". Warning and error counts decide the final
// exit status: any recorded error makes the run exit with the configuration
// error code after reporting.
//
// Safe for concurrent use; workers emit warnings while the pool runs.
type Diagnostics struct {
	mu       sync.Mutex
	out      io.Writer
	warnings int
	errors   int
}

// NewDiagnostics creates a diagnostic stream writing to out, normally
// stderr.
func NewDiagnostics(out io.Writer) *Diagnostics {
	return &Diagnostics{out: out}
}

// Note emits an informational message.
func (d *Diagnostics) Note(format string, args ...interface{}) {
	d.write("note", format, args...)
}

// Warning emits a warning and counts it.
func (d *Diagnostics) Warning(format string, args ...interface{}) {
	d.mu.Lock()
	d.warnings++
	d.mu.Unlock()
	d.write("warning", format, args...)
}

// Error emits an error and counts it. The caller decides whether to abort;
// recorded errors always fail the run at exit time.
func (d *Diagnostics) Error(format string, args ...interface{}) {
	d.mu.Lock()
	d.errors++
	d.mu.Unlock()
	d.write("error", format, args...)
}

// NumWarnings returns the number of warnings emitted so far.
func (d *Diagnostics) NumWarnings() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.warnings
}

// NumErrors returns the number of errors emitted so far.
func (d *Diagnostics) NumErrors() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors
}

func (d *Diagnostics) write(kind, format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s: %s: %s\n", progName, kind, fmt.Sprintf(format, args...))
}
