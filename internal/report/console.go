package report

import (
	"fmt"
	"io"
	"strings"

	"proctor/internal/config"
	"proctor/internal/test"
)

// Failure groups print before the summary, worst news first.
var consoleGroups = []struct {
	title string
	code  test.Code
}{
	{"Unexpected Passing Tests", test.XPass},
	{"Failing Tests", test.Fail},
	{"Unresolved Tests", test.Unresolved},
	{"Unsupported Tests", test.Unsupported},
	{"Expected Failing Tests", test.XFail},
	{"Timed Out Tests", test.Timeout},
}

// Summary labels are padded so the counts line up.
var consoleSummary = []struct {
	label string
	code  test.Code
}{
	{"Expected Passes    ", test.Pass},
	{"Passes With Retry  ", test.FlakyPass},
	{"Expected Failures  ", test.XFail},
	{"Unsupported Tests  ", test.Unsupported},
	{"Unresolved Tests   ", test.Unresolved},
	{"Unexpected Passes  ", test.XPass},
	{"Unexpected Failures", test.Fail},
	{"Individual Timeouts", test.Timeout},
}

// WriteGroups lists every test in each notable result group. The expected
// failure and unsupported groups only appear when requested.
func WriteGroups(w io.Writer, s *Summary, cfg *config.Config) {
	for _, g := range consoleGroups {
		if g.code == test.XFail && !cfg.ShowXFail {
			continue
		}
		if g.code == test.Unsupported && !cfg.ShowUnsupported {
			continue
		}
		group := s.ByCode(g.code)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintln(w, strings.Repeat("*", 20))
		fmt.Fprintf(w, "%s (%d):\n", g.title, len(group))
		for _, c := range group {
			fmt.Fprintf(w, "    %s\n", c.FullName())
		}
		fmt.Fprintln(w)
	}
}

// WriteSummary prints one count line per result code that occurred. Quiet
// mode keeps only the failing lines.
func WriteSummary(w io.Writer, s *Summary, quiet bool) {
	for _, line := range consoleSummary {
		if quiet && !line.code.IsFailure() {
			continue
		}
		if n := s.Count(line.code); n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", line.label, n)
		}
	}
}
