// Package test defines the core data model shared by every stage of the
// pipeline: suites, test cases, execution results, and the closed set of
// result codes. The model is deliberately passive. Discovery produces it
// and the later stages only read it, except for each case's single result
// slot.
package test

import (
	"fmt"
	"path/filepath"
	"time"
)

// Code classifies the outcome of a single test execution.
type Code int

const (
	// Pass indicates the test succeeded as expected.
	Pass Code = iota
	// FlakyPass indicates the test succeeded only after at least one retry.
	FlakyPass
	// XFail indicates the test failed and was expected to fail.
	XFail
	// Unsupported indicates the test cannot run in this environment.
	Unsupported
	// XPass indicates the test succeeded although it was expected to fail.
	XPass
	// Fail indicates the test failed.
	Fail
	// Unresolved indicates the harness could not determine an outcome.
	Unresolved
	// Timeout indicates the test exceeded its individual time limit.
	Timeout
)

// IsFailure reports whether the code counts as a failure for exit-code,
// fail-fast, and reporting purposes.
func (c Code) IsFailure() bool {
	switch c {
	case XPass, Fail, Unresolved, Timeout:
		return true
	default:
		return false
	}
}

// String returns the canonical name of the code as it appears in progress
// lines and machine-readable reports.
func (c Code) String() string {
	switch c {
	case Pass:
		return "PASS"
	case FlakyPass:
		return "FLAKYPASS"
	case XFail:
		return "XFAIL"
	case Unsupported:
		return "UNSUPPORTED"
	case XPass:
		return "XPASS"
	case Fail:
		return "FAIL"
	case Unresolved:
		return "UNRESOLVED"
	case Timeout:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Codes lists every result code in declaration order. Reporters iterate it
// when building histograms so new codes cannot be silently dropped.
func Codes() []Code {
	return []Code{Pass, FlakyPass, XFail, Unsupported, XPass, Fail, Unresolved, Timeout}
}

// Suite groups the tests loaded from one manifest and carries the context
// they execute in.
type Suite struct {
	// Name is the unique suite identifier used as the full-name prefix.
	Name string
	// SourceRoot is the absolute directory test paths are resolved against.
	SourceRoot string
	// ExecRoot is the absolute directory commands run in.
	ExecRoot string
	// Features lists the capability tags this environment provides.
	Features []string
	// MinVersion is the minimum tool version the suite requires, if any.
	MinVersion string
	// Env holds extra environment variables for every test in the suite.
	Env map[string]string
}

// Case is a single runnable test. Discovery creates cases, the scheduler
// attaches exactly one Result to each case it dispatches, and cases the run
// stopped short of keep a nil result.
type Case struct {
	// Suite is the owning suite. Never nil for a discovered case.
	Suite *Suite
	// Path locates the test within the suite, slash-separated.
	Path string
	// Command is the shell-quoted command line to execute.
	Command string
	// Early marks the test to run ahead of others under default ordering.
	Early bool
	// XFail marks the test as expected to fail.
	XFail bool
	// Requires lists feature tags that must all be present in the suite.
	Requires []string
	// Retries is the number of additional attempts allowed after a failure.
	Retries int
	// Env holds extra environment variables for this test only.
	Env map[string]string

	result *Result
}

// FullName returns the suite-qualified test name.
func (c *Case) FullName() string {
	return c.Suite.Name + " :: " + c.Path
}

// FilePath returns the file backing this test, used for modification-time
// ordering and the incremental cache. The file may not exist.
func (c *Case) FilePath() string {
	return filepath.Join(c.Suite.SourceRoot, filepath.FromSlash(c.Path))
}

// SetResult attaches the execution result. Attaching twice is a bug in the
// scheduler, so it panics rather than masking the duplicate.
func (c *Case) SetResult(r *Result) {
	if c.result != nil {
		panic(fmt.Sprintf("result already set for %s", c.FullName()))
	}
	c.result = r
}

// Result returns the attached result, or nil if the test never ran.
func (c *Case) Result() *Result {
	return c.result
}

// Result captures one execution outcome together with its diagnostics.
type Result struct {
	// Code is the outcome classification.
	Code Code
	// Output is the combined stdout/stderr of the execution.
	Output string
	// Elapsed is the wall-clock duration of the execution.
	Elapsed time.Duration

	metrics map[string]float64
	micro   map[string]*Result
}

// NewResult creates a result with the given classification.
func NewResult(code Code, output string, elapsed time.Duration) *Result {
	return &Result{Code: code, Output: output, Elapsed: elapsed}
}

// AddMetric records a named numeric measurement. Metric names must be unique
// within a result.
func (r *Result) AddMetric(name string, value float64) error {
	if _, ok := r.metrics[name]; ok {
		return fmt.Errorf("metric %q already present", name)
	}
	if r.metrics == nil {
		r.metrics = make(map[string]float64)
	}
	r.metrics[name] = value
	return nil
}

// Metrics returns the recorded measurements, or nil when there are none.
func (r *Result) Metrics() map[string]float64 {
	return r.metrics
}

// AddMicroResult records a named sub-result, such as an individual benchmark
// within a test. Names must be unique within a result.
func (r *Result) AddMicroResult(name string, sub *Result) error {
	if _, ok := r.micro[name]; ok {
		return fmt.Errorf("micro result %q already present", name)
	}
	if r.micro == nil {
		r.micro = make(map[string]*Result)
	}
	r.micro[name] = sub
	return nil
}

// MicroResults returns the recorded sub-results, or nil when there are none.
func (r *Result) MicroResults() map[string]*Result {
	return r.micro
}
