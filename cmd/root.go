package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"proctor/internal/config"
	"proctor/internal/discovery"
	"proctor/internal/display"
	"proctor/internal/report"
	"proctor/internal/run"
	"proctor/internal/runner"
	"proctor/internal/selection"
	"proctor/internal/test"
	"proctor/pkg/logging"
)

// Exit codes for the proctor command.
// These are contractual: CI systems branch on them.
const (
	// ExitCodeSuccess indicates every selected test passed.
	ExitCodeSuccess = 0
	// ExitCodeTestFailure indicates the run completed with failing tests.
	ExitCodeTestFailure = 1
	// ExitCodeError indicates a configuration or internal error, or an
	// interrupted run.
	ExitCodeError = 2
)

// Raw flag values. Resolve turns them, together with the PROCTOR_*
// environment variables, into the run configuration.
var (
	flagFilter      string
	flagNumShards   int
	flagRunShard    int
	flagMaxTests    int
	flagShuffle     bool
	flagIncremental bool
	flagWorkers     int
	flagTimeout     int
	flagMaxTime     int
	flagMaxFailures int
	flagOutput      string
	flagXUnitOutput string

	flagQuiet           bool
	flagSuccinct        bool
	flagVerbose         bool
	flagShowXFail       bool
	flagShowUnsupported bool
	flagTimeTests       bool

	flagShowSuites bool
	flagShowTests  bool
	flagEnvFile    string
	flagDebug      bool
)

// exitStatus carries the outcome of a completed run. Fatal errors exit
// through Execute's error path instead.
var exitStatus = ExitCodeSuccess

// rootCmd represents the base command for the proctor application.
var rootCmd = &cobra.Command{
	Use:   "proctor [options] TEST_PATH...",
	Short: "Run test suites and report the results",
	Long: `proctor discovers tests from suite manifests under the given paths,
selects and orders them, runs them under a bounded worker pool and reports
the outcome on the console and optionally as JSON or JUnit XML documents.`,
	Args: cobra.MinimumNArgs(1),
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It is called by
// main.main() and never returns.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "proctor version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Anything surfacing as an error here happened outside normal
		// test execution: bad flags, unreadable manifests, report I/O.
		os.Exit(ExitCodeError)
	}
	os.Exit(exitStatus)
}

// runProctor drives the whole pipeline: discovery, selection, ordering,
// execution and reporting.
func runProctor(cmd *cobra.Command, args []string) error {
	if flagDebug {
		logging.Init(logging.LevelDebug, cmd.ErrOrStderr())
	} else {
		logging.Init(logging.LevelWarn, cmd.ErrOrStderr())
	}

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	diag := config.NewDiagnostics(errOut)

	suites, cases, err := discoverTests(cfg)
	if err != nil {
		return err
	}
	numTotal := len(cases)

	if flagShowSuites || flagShowTests {
		if flagShowSuites {
			showSuites(out, suites, cases)
		}
		if flagShowTests {
			showTests(out, cases)
		}
		return nil
	}

	selected := selection.Select(cases, cfg, diag)
	selection.Order(selected, cfg)

	if len(selected) < cfg.Workers {
		cfg.Workers = len(selected)
	}
	run.IncreaseProcessLimit(cfg.Workers, diag)

	workspace, err := runner.NewWorkspace(cfg.PreservesTmp)
	if err != nil {
		return err
	}
	defer func() {
		if err := workspace.Cleanup(); err != nil {
			logging.Warn("Runner", "failed to remove workspace %s: %v", workspace.Dir(), err)
		}
	}()

	testRunner := runner.NewCommandRunner(runner.Options{
		Timeout:  cfg.Timeout,
		Version:  rootCmd.Version,
		ExtraEnv: workspace.Environ(),
	})

	disp := display.New(cfg, len(selected), numTotal, cfg.Workers, out)
	disp.PrintHeader()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	r := run.NewRun(selected)
	progress := func(c *test.Case) {
		disp.Update(c)
		if cfg.Order == config.OrderIncremental {
			selection.UpdateIncrementalCache(c)
		}
	}
	if err := r.Execute(ctx, testRunner, cfg, diag, progress); err != nil {
		exitStatus = ExitCodeError
		return nil
	}
	disp.Finish()

	if !cfg.Quiet {
		fmt.Fprintf(out, "Testing Time: %.2fs\n", r.Elapsed.Seconds())
	}

	completed := r.Completed()
	var reportErrs []error
	if cfg.Output != "" {
		if err := report.WriteJSON(cfg.Output, completed, r.Elapsed); err != nil {
			reportErrs = append(reportErrs, err)
		}
	}

	summary := report.Aggregate(completed)
	report.WriteGroups(out, summary, cfg)
	if cfg.TimeTests {
		report.WriteHistogram(out, completed)
	}
	report.WriteSummary(out, summary, cfg.Quiet)

	if cfg.XUnitOutput != "" {
		if err := report.WriteJUnit(cfg.XUnitOutput, completed); err != nil {
			reportErrs = append(reportErrs, err)
		}
	}
	if len(reportErrs) > 0 {
		// The console already has the results; the report files are what
		// failed.
		return errors.Join(reportErrs...)
	}

	if n := diag.NumErrors(); n > 0 {
		fmt.Fprintf(errOut, "\n%d error(s), exiting.\n", n)
		exitStatus = ExitCodeError
		return nil
	}
	if n := diag.NumWarnings(); n > 0 {
		fmt.Fprintf(errOut, "\n%d warning(s) in tests.\n", n)
	}
	if summary.HasFailures() {
		exitStatus = ExitCodeTestFailure
	}
	return nil
}

// discoverTests loads every suite manifest under the configured paths. The
// listing flags get a spinner while the tree is walked.
func discoverTests(cfg *config.Config) ([]*test.Suite, []*test.Case, error) {
	spin := newDiscoverySpinner(cfg)
	suites, cases, err := discovery.NewLoader().Load(cfg.Paths)
	if spin != nil {
		spin.Stop()
	}
	return suites, cases, err
}

// resolveConfig collects the raw flag values and hands them to Resolve.
// The Changed bits let Resolve tell an explicit zero from an absent flag.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()
	return config.Resolve(config.Options{
		Paths:          args,
		Filter:         flagFilter,
		NumShards:      flagNumShards,
		NumShardsSet:   flags.Changed("num-shards"),
		RunShard:       flagRunShard,
		RunShardSet:    flags.Changed("run-shard"),
		MaxTests:       flagMaxTests,
		MaxTestsSet:    flags.Changed("max-tests"),
		Shuffle:        flagShuffle,
		Incremental:    flagIncremental,
		Workers:        flagWorkers,
		WorkersSet:     flags.Changed("workers"),
		TimeoutSeconds: flagTimeout,
		MaxTimeSeconds: flagMaxTime,
		MaxFailures:    flagMaxFailures,
		MaxFailuresSet: flags.Changed("max-failures"),
		Output:         flagOutput,
		XUnitOutput:    flagXUnitOutput,

		Quiet:           flagQuiet,
		Succinct:        flagSuccinct,
		Verbose:         flagVerbose,
		ShowXFail:       flagShowXFail,
		ShowUnsupported: flagShowUnsupported,
		TimeTests:       flagTimeTests,

		EnvFile: flagEnvFile,
		Version: rootCmd.Version,
	})
}

// init registers the flags and subcommands with the root command.
func init() {
	// Assigned here rather than in the composite literal so that the
	// compiler does not see an initialization cycle between rootCmd and
	// runProctor, which reads rootCmd.Version.
	rootCmd.RunE = runProctor

	flags := rootCmd.Flags()
	flags.StringVar(&flagFilter, "filter", "", "only run tests whose full name matches the regular expression")
	flags.IntVar(&flagNumShards, "num-shards", 0, "split testing into this many shards")
	flags.IntVar(&flagRunShard, "run-shard", 0, "run only this shard, counting from 1")
	flags.IntVar(&flagMaxTests, "max-tests", 0, "run at most this many tests")
	flags.BoolVar(&flagShuffle, "shuffle", false, "run the tests in a random order")
	flags.BoolVar(&flagIncremental, "incremental", false, "run recently modified and failed tests first")
	flags.IntVarP(&flagWorkers, "workers", "j", 0, "number of parallel test workers (default: number of CPUs)")
	flags.IntVar(&flagTimeout, "timeout", 0, "maximum time in seconds for one test, 0 for unlimited")
	flags.IntVar(&flagMaxTime, "max-time", 0, "maximum time in seconds to spend testing, 0 for unlimited")
	flags.IntVar(&flagMaxFailures, "max-failures", 0, "stop dispatching new tests after this many failures")
	flags.StringVarP(&flagOutput, "output", "o", "", "write a JSON report to this path")
	flags.StringVar(&flagXUnitOutput, "xunit-xml-output", "", "write a JUnit XML report to this path")

	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress lines and non-failure summary lines")
	flags.BoolVarP(&flagSuccinct, "succinct", "s", false, "show a progress bar instead of per-test lines")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "show the output of failing tests")
	flags.BoolVar(&flagShowXFail, "show-xfail", false, "list expected failures in the console report")
	flags.BoolVar(&flagShowUnsupported, "show-unsupported", false, "list unsupported tests in the console report")
	flags.BoolVar(&flagTimeTests, "time-tests", false, "print a histogram of test timings")

	flags.BoolVar(&flagShowSuites, "show-suites", false, "list the discovered test suites and exit")
	flags.BoolVar(&flagShowTests, "show-tests", false, "list the discovered tests and exit")
	flags.StringVar(&flagEnvFile, "env-file", "", "load additional environment variables from this file")
	flags.BoolVar(&flagDebug, "debug", false, "enable debug logging of the harness itself")

	rootCmd.MarkFlagsMutuallyExclusive("shuffle", "incremental")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
