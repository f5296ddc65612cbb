// Package runner executes individual test commands. The scheduler hands it
// one case at a time; it classifies every outcome itself and never returns
// an error, so a broken command surfaces as an UNRESOLVED result instead of
// aborting the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/kballard/go-shellquote"

	"proctor/internal/test"
	"proctor/pkg/logging"
)

// Options configures a CommandRunner.
type Options struct {
	// Timeout limits each test attempt. Zero means unlimited.
	Timeout time.Duration
	// Version is the tool version string used for suite minimum-version
	// gates. An unparseable version (such as a dev build) disables the
	// gate and every suite runs.
	Version string
	// ExtraEnv is appended to the inherited environment for every test,
	// typically the workspace temp-dir exports.
	ExtraEnv []string
}

// CommandRunner runs test commands in their suite's exec root. All fields
// are read-only after construction, so a single runner is safe for
// concurrent Execute calls on distinct cases.
type CommandRunner struct {
	timeout time.Duration
	version *goversion.Version
	baseEnv []string
}

// NewCommandRunner creates a runner for the whole run.
func NewCommandRunner(opts Options) *CommandRunner {
	r := &CommandRunner{
		timeout: opts.Timeout,
		baseEnv: append(os.Environ(), opts.ExtraEnv...),
	}
	if v, err := goversion.NewVersion(opts.Version); err == nil {
		r.version = v
	}
	return r
}

// Execute runs one test and classifies the outcome. Expected-failure tests
// map failure to XFAIL and success to XPASS; a test that only passes after
// a retry reports FLAKYPASS. Tests whose requirements this environment
// cannot meet report UNSUPPORTED without running.
func (r *CommandRunner) Execute(ctx context.Context, c *test.Case) *test.Result {
	start := time.Now()

	if reason := r.unsupportedReason(c); reason != "" {
		return test.NewResult(test.Unsupported, reason, time.Since(start))
	}

	argv, err := shellquote.Split(c.Command)
	if err != nil {
		return test.NewResult(test.Unresolved,
			fmt.Sprintf("cannot parse command %q: %v", c.Command, err), time.Since(start))
	}
	if len(argv) == 0 {
		return test.NewResult(test.Unresolved, "empty test command", time.Since(start))
	}

	var transcript strings.Builder
	for attempt := 0; ; attempt++ {
		code, out := r.runOnce(ctx, argv, c)
		if attempt > 0 {
			fmt.Fprintf(&transcript, "\n-- retry %d of %d --\n", attempt, c.Retries)
		}
		transcript.WriteString(out)

		// Map the expectation before deciding on a retry: expected
		// failures are final, only plain failures are retried.
		if c.XFail {
			switch code {
			case test.Pass:
				code = test.XPass
			case test.Fail:
				code = test.XFail
			}
		}
		if code == test.Pass && attempt > 0 {
			code = test.FlakyPass
		}

		if code == test.Fail && attempt < c.Retries && ctx.Err() == nil {
			logging.Debug("Runner", "retrying %s (attempt %d of %d)", c.FullName(), attempt+2, c.Retries+1)
			continue
		}
		return test.NewResult(code, transcript.String(), time.Since(start))
	}
}

// runOnce performs a single attempt and returns the raw classification.
func (r *CommandRunner) runOnce(ctx context.Context, argv []string, c *test.Case) (test.Code, string) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = c.Suite.ExecRoot
	cmd.Env = r.environ(c)
	configureProcAttr(cmd)
	// Cancellation must take down everything the test spawned, not just
	// the immediate child.
	cmd.Cancel = func() error {
		return killProcessGroup(cmd.Process.Pid, syscall.SIGKILL)
	}

	out, err := cmd.CombinedOutput()
	output := string(out)

	if r.timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return test.Timeout, output + fmt.Sprintf("\nReached timeout of %d seconds", int(r.timeout.Seconds()))
	}
	if ctx.Err() != nil {
		return test.Unresolved, output + "\ninterrupted"
	}
	if err == nil {
		return test.Pass, output
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return test.Fail, output
	}
	return test.Unresolved, fmt.Sprintf("unable to execute command: %v", err)
}

// unsupportedReason reports why this environment cannot run the test, or
// an empty string when it can.
func (r *CommandRunner) unsupportedReason(c *test.Case) string {
	var missing []string
	available := make(map[string]bool, len(c.Suite.Features))
	for _, f := range c.Suite.Features {
		available[f] = true
	}
	for _, f := range c.Requires {
		if !available[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return "Test requires the following unavailable features: " + strings.Join(missing, ", ")
	}

	if c.Suite.MinVersion != "" && r.version != nil {
		min, err := goversion.NewVersion(c.Suite.MinVersion)
		if err == nil && r.version.LessThan(min) {
			return fmt.Sprintf("Test suite requires version %s but running version is %s",
				c.Suite.MinVersion, r.version)
		}
	}
	return ""
}

// environ merges the base environment with suite and test variables; the
// test's own variables win.
func (r *CommandRunner) environ(c *test.Case) []string {
	env := make([]string, len(r.baseEnv), len(r.baseEnv)+len(c.Suite.Env)+len(c.Env))
	copy(env, r.baseEnv)
	for k, v := range c.Suite.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}
