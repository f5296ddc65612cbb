package run

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/config"
	"proctor/internal/test"
)

// stubExecutor returns canned codes by test path and records the highest
// number of concurrent executions it observed.
type stubExecutor struct {
	codes map[string]test.Code
	delay time.Duration

	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *stubExecutor) Execute(ctx context.Context, c *test.Case) *test.Result {
	current := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if current <= seen || s.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return test.NewResult(test.Unresolved, "interrupted", s.delay)
		}
	}

	code, ok := s.codes[c.Path]
	if !ok {
		code = test.Pass
	}
	return test.NewResult(code, "output of "+c.Path, time.Millisecond)
}

func makeTests(n int) []*test.Case {
	suite := &test.Suite{Name: "suite"}
	cases := make([]*test.Case, n)
	for i := range cases {
		cases[i] = &test.Case{Suite: suite, Path: fmt.Sprintf("t%03d.txt", i)}
	}
	return cases
}

func newDiag() (*config.Diagnostics, *bytes.Buffer) {
	var buf bytes.Buffer
	return config.NewDiagnostics(&buf), &buf
}

func TestNewRun(t *testing.T) {
	tests := makeTests(3)
	r := NewRun(tests)

	assert.Len(t, r.ID, 36)
	assert.Equal(t, tests, r.Tests)
	assert.Zero(t, r.Skipped)
}

func TestExecuteRunsAllTests(t *testing.T) {
	r := NewRun(makeTests(10))
	exec := &stubExecutor{}
	diag, out := newDiag()

	var completed atomic.Int32
	err := r.Execute(context.Background(), exec, &config.Config{Workers: 3}, diag, func(c *test.Case) {
		completed.Add(1)
	})

	require.NoError(t, err)
	assert.Equal(t, int32(10), completed.Load())
	assert.Zero(t, r.Skipped)
	assert.Greater(t, r.Elapsed, time.Duration(0))
	assert.Empty(t, out.String())
	for _, c := range r.Tests {
		require.NotNil(t, c.Result(), "missing result for %s", c.Path)
		assert.Equal(t, test.Pass, c.Result().Code)
	}
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	r := NewRun(makeTests(12))
	exec := &stubExecutor{delay: 30 * time.Millisecond}
	diag, _ := newDiag()

	err := r.Execute(context.Background(), exec, &config.Config{Workers: 4}, diag, nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, exec.maxSeen.Load(), int32(4))
	assert.Len(t, r.Completed(), 12)
}

func TestExecuteNeverMoreWorkersThanTests(t *testing.T) {
	r := NewRun(makeTests(2))
	exec := &stubExecutor{delay: 30 * time.Millisecond}
	diag, _ := newDiag()

	err := r.Execute(context.Background(), exec, &config.Config{Workers: 16}, diag, nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, exec.maxSeen.Load(), int32(2))
}

func TestExecuteFailureLimit(t *testing.T) {
	tests := []struct {
		name          string
		codes         map[string]test.Code
		maxFailures   int
		wantCompleted int
		wantNote      bool
	}{
		{
			name:          "stops after limit",
			codes:         map[string]test.Code{"t000.txt": test.Fail, "t001.txt": test.Fail, "t002.txt": test.Fail},
			maxFailures:   3,
			wantCompleted: 3,
			wantNote:      true,
		},
		{
			name:          "timeouts count as failures",
			codes:         map[string]test.Code{"t000.txt": test.Timeout},
			maxFailures:   1,
			wantCompleted: 1,
			wantNote:      true,
		},
		{
			name:          "expected failures do not count",
			codes:         map[string]test.Code{"t000.txt": test.XFail, "t001.txt": test.Unsupported},
			maxFailures:   1,
			wantCompleted: 20,
			wantNote:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRun(makeTests(20))
			exec := &stubExecutor{codes: tt.codes}
			diag, out := newDiag()

			// One worker keeps completion order deterministic.
			cfg := &config.Config{Workers: 1, MaxFailures: tt.maxFailures}
			err := r.Execute(context.Background(), exec, cfg, diag, nil)

			require.NoError(t, err)
			assert.Len(t, r.Completed(), tt.wantCompleted)
			assert.Equal(t, 20-tt.wantCompleted, r.Skipped)
			if tt.wantNote {
				assert.Contains(t, out.String(),
					fmt.Sprintf("proctor: note: reached maximum number of test failures, skipping %d remaining tests", r.Skipped))
			} else {
				assert.Empty(t, out.String())
			}
		})
	}
}

func TestExecuteTimeLimit(t *testing.T) {
	r := NewRun(makeTests(10))
	exec := &stubExecutor{delay: 150 * time.Millisecond}
	diag, out := newDiag()

	cfg := &config.Config{Workers: 1, MaxTime: 200 * time.Millisecond}
	err := r.Execute(context.Background(), exec, cfg, diag, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Skipped, 1)
	assert.Len(t, r.Completed(), 10-r.Skipped)
	assert.Contains(t, out.String(), "reached testing time limit")
}

func TestExecuteInterrupt(t *testing.T) {
	r := NewRun(makeTests(4))
	exec := &stubExecutor{delay: 2 * time.Second}
	diag, _ := newDiag()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Execute(ctx, exec, &config.Config{Workers: 2}, diag, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, r.Completed(), "interrupted tests must not keep results")
}

func TestExecuteSingleWorkerOrder(t *testing.T) {
	// With one worker, completion order is dispatch order.
	r := NewRun(makeTests(6))
	exec := &stubExecutor{}
	diag, _ := newDiag()

	var order []string
	err := r.Execute(context.Background(), exec, &config.Config{Workers: 1}, diag, func(c *test.Case) {
		order = append(order, c.Path)
	})

	require.NoError(t, err)
	want := make([]string, 0, len(r.Tests))
	for _, c := range r.Tests {
		want = append(want, c.Path)
	}
	assert.Equal(t, want, order)
}

func TestExecuteProgressOncePerTest(t *testing.T) {
	r := NewRun(makeTests(25))
	exec := &stubExecutor{}
	diag, _ := newDiag()

	var mu sync.Mutex
	seen := make(map[string]int)
	var missingResult atomic.Bool

	err := r.Execute(context.Background(), exec, &config.Config{Workers: 5}, diag, func(c *test.Case) {
		if c.Result() == nil {
			missingResult.Store(true)
		}
		mu.Lock()
		seen[c.Path]++
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.False(t, missingResult.Load(), "progress ran before the result was attached")
	assert.Len(t, seen, 25)
	for path, count := range seen {
		assert.Equal(t, 1, count, "test %s reported %d times", path, count)
	}
}

func TestExecuteEmptyRun(t *testing.T) {
	r := NewRun(nil)
	diag, out := newDiag()

	err := r.Execute(context.Background(), &stubExecutor{}, &config.Config{Workers: 4}, diag, nil)

	require.NoError(t, err)
	assert.Zero(t, r.Skipped)
	assert.Empty(t, out.String())
}

func TestCompleted(t *testing.T) {
	cases := makeTests(4)
	cases[0].SetResult(test.NewResult(test.Pass, "", time.Second))
	cases[2].SetResult(test.NewResult(test.Fail, "", time.Second))
	r := &Run{ID: "fixed", Tests: cases}

	completed := r.Completed()

	require.Len(t, completed, 2)
	assert.Equal(t, "t000.txt", completed[0].Path)
	assert.Equal(t, "t002.txt", completed[1].Path)
}

func TestIncreaseProcessLimit(t *testing.T) {
	diag, out := newDiag()

	IncreaseProcessLimit(2, diag)

	// Whether the limit moves depends on the host; the note format is
	// fixed when it does.
	if s := out.String(); s != "" {
		assert.Regexp(t, `^proctor: note: raised the process limit from \d+ to \d+\n$`, s)
	}
}
