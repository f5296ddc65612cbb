package config

import (
	"regexp"
	"time"
)

// Order selects the ordering policy applied after selection.
type Order string

const (
	// OrderDefault runs early tests first, then the rest by full name.
	OrderDefault Order = "default"
	// OrderShuffle runs tests in uniformly random order.
	OrderShuffle Order = "shuffle"
	// OrderIncremental runs recently modified tests first.
	OrderIncremental Order = "incremental"
)

// Config is the fully resolved run configuration. It is built once by
// Resolve and never mutated afterwards; every pipeline stage reads it.
type Config struct {
	// Paths are the discovery roots given on the command line.
	Paths []string
	// Filter restricts the run to tests whose full name matches.
	// Nil means no filtering.
	Filter *regexp.Regexp
	// NumShards and RunShard partition the filtered tests across
	// cooperating invocations. Both are zero when sharding is off;
	// RunShard is 1-based otherwise.
	NumShards int
	RunShard  int
	// MaxTests caps the number of selected tests. Zero means no cap.
	MaxTests int
	// Order is the ordering policy.
	Order Order
	// Workers is the requested pool size. The scheduler clamps it to the
	// number of selected tests.
	Workers int
	// Timeout limits each individual test. Zero means unlimited.
	Timeout time.Duration
	// MaxTime limits the whole run. Zero means unlimited.
	MaxTime time.Duration
	// MaxFailures stops dispatching new tests after that many failures.
	// Zero means unlimited.
	MaxFailures int
	// Output is the JSON report path, empty when disabled.
	Output string
	// XUnitOutput is the JUnit XML report path, empty when disabled.
	XUnitOutput string

	// Quiet suppresses the progress stream and non-failure summary lines.
	Quiet bool
	// Succinct switches the progress stream to a progress bar.
	Succinct bool
	// Verbose prints the output of failing tests as they complete.
	Verbose bool
	// ShowXFail includes expected failures in the console report.
	ShowXFail bool
	// ShowUnsupported includes unsupported tests in the console report.
	ShowUnsupported bool
	// TimeTests prints a histogram of test times after the summary.
	TimeTests bool

	// PreservesTmp keeps the per-run temp directory for debugging.
	PreservesTmp bool
	// Version is the tool version, used for suite minimum-version gates.
	Version string
}

// Sharded reports whether this run executes a shard of the full set.
func (c *Config) Sharded() bool {
	return c.NumShards > 0
}
