package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognized as alternate inputs for their flags.
// An explicit flag always wins over the variable.
const (
	EnvFilter    = "PROCTOR_FILTER"
	EnvNumShards = "PROCTOR_NUM_SHARDS"
	EnvRunShard  = "PROCTOR_RUN_SHARD"
	// EnvPreservesTmp keeps the per-run temp directory after the run.
	EnvPreservesTmp = "PROCTOR_PRESERVES_TMP"
)

// Options carries the raw flag values collected by the CLI before
// resolution. The *Set fields distinguish an explicit zero from an absent
// flag where the difference matters.
type Options struct {
	Paths []string

	Filter         string
	NumShards      int
	NumShardsSet   bool
	RunShard       int
	RunShardSet    bool
	MaxTests       int
	MaxTestsSet    bool
	Shuffle        bool
	Incremental    bool
	Workers        int
	WorkersSet     bool
	TimeoutSeconds int
	MaxTimeSeconds int
	MaxFailures    int
	MaxFailuresSet bool
	Output         string
	XUnitOutput    string

	Quiet           bool
	Succinct        bool
	Verbose         bool
	ShowXFail       bool
	ShowUnsupported bool
	TimeTests       bool

	EnvFile string
	Version string
}

// Resolve validates the raw options, applies environment-variable fallbacks
// and defaults, and produces the immutable run configuration. It returns a
// ConfigurationError when any input is rejected; no test runs in that case.
func Resolve(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		// Values already present in the environment win over the file.
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, &ConfigurationError{
				Flag:    "--env-file",
				Value:   opts.EnvFile,
				Message: fmt.Sprintf("cannot load environment file %s: %v", opts.EnvFile, err),
			}
		}
	}

	cfg := &Config{
		Paths:           opts.Paths,
		Output:          opts.Output,
		XUnitOutput:     opts.XUnitOutput,
		Quiet:           opts.Quiet,
		Succinct:        opts.Succinct,
		Verbose:         opts.Verbose,
		ShowXFail:       opts.ShowXFail,
		ShowUnsupported: opts.ShowUnsupported,
		TimeTests:       opts.TimeTests,
		PreservesTmp:    os.Getenv(EnvPreservesTmp) != "",
		Version:         opts.Version,
	}

	pattern := opts.Filter
	if pattern == "" {
		pattern = os.Getenv(EnvFilter)
	}
	if pattern != "" {
		rex, err := regexp.Compile(pattern)
		if err != nil {
			return nil, newFlagError("--filter", "invalid regular expression for --filter: '%s'", pattern)
		}
		cfg.Filter = rex
	}

	numShards, err := resolveCount("--num-shards", opts.NumShards, opts.NumShardsSet, EnvNumShards)
	if err != nil {
		return nil, err
	}
	runShard, err := resolveCount("--run-shard", opts.RunShard, opts.RunShardSet, EnvRunShard)
	if err != nil {
		return nil, err
	}
	if (numShards == 0) != (runShard == 0) {
		return nil, newFlagError("--num-shards", "--num-shards and --run-shard must be used together")
	}
	if numShards > 0 && (runShard < 1 || runShard > numShards) {
		return nil, newFlagError("--run-shard", "--run-shard must be between 1 and --num-shards (inclusive)")
	}
	cfg.NumShards = numShards
	cfg.RunShard = runShard

	if opts.MaxTestsSet && opts.MaxTests < 1 {
		return nil, newPositiveIntError("--max-tests", strconv.Itoa(opts.MaxTests))
	}
	cfg.MaxTests = opts.MaxTests

	if opts.Shuffle && opts.Incremental {
		return nil, newFlagError("--shuffle", "--shuffle and --incremental are mutually exclusive")
	}
	switch {
	case opts.Shuffle:
		cfg.Order = OrderShuffle
	case opts.Incremental:
		cfg.Order = OrderIncremental
	default:
		cfg.Order = OrderDefault
	}

	switch {
	case opts.WorkersSet && opts.Workers < 1:
		return nil, newPositiveIntError("-j/--workers", strconv.Itoa(opts.Workers))
	case opts.Workers < 1:
		cfg.Workers = runtime.NumCPU()
	default:
		cfg.Workers = opts.Workers
	}

	if opts.TimeoutSeconds < 0 {
		return nil, newFlagError("--timeout", "argument --timeout: requires non-negative integer, but found '%d'", opts.TimeoutSeconds)
	}
	cfg.Timeout = time.Duration(opts.TimeoutSeconds) * time.Second

	if opts.MaxTimeSeconds < 0 {
		return nil, newFlagError("--max-time", "argument --max-time: requires non-negative integer, but found '%d'", opts.MaxTimeSeconds)
	}
	cfg.MaxTime = time.Duration(opts.MaxTimeSeconds) * time.Second

	if opts.MaxFailuresSet {
		if opts.MaxFailures == 0 {
			return nil, newFlagError("--max-failures", "Setting --max-failures to 0 does not have any effect.")
		}
		if opts.MaxFailures < 0 {
			return nil, newPositiveIntError("--max-failures", strconv.Itoa(opts.MaxFailures))
		}
	}
	cfg.MaxFailures = opts.MaxFailures

	return cfg, nil
}

// resolveCount returns the value of a positive-integer flag, falling back to
// its environment variable when the flag is absent. Zero with a nil error
// means neither source provided a value.
func resolveCount(flag string, val int, set bool, envKey string) (int, error) {
	if set {
		if val < 1 {
			return 0, newPositiveIntError(flag, strconv.Itoa(val))
		}
		return val, nil
	}
	raw := os.Getenv(envKey)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, newPositiveIntError(flag, raw)
	}
	return n, nil
}
