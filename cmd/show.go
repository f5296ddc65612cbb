package cmd

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"proctor/internal/config"
	"proctor/internal/test"
)

// newDiscoverySpinner starts a spinner while the tree is walked for the
// listing flags. Returns nil when nothing should be shown.
func newDiscoverySpinner(cfg *config.Config) *spinner.Spinner {
	if cfg.Quiet || !(flagShowSuites || flagShowTests) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Discovering tests..."
	s.Start()
	return s
}

// showSuites renders the discovered suites with their roots and features,
// sorted by name.
func showSuites(out io.Writer, suites []*test.Suite, cases []*test.Case) {
	counts := make(map[string]int, len(suites))
	for _, c := range cases {
		counts[c.Suite.Name]++
	}
	sorted := make([]*test.Suite, len(suites))
	copy(sorted, suites)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SUITE"),
		text.FgHiCyan.Sprint("TESTS"),
		text.FgHiCyan.Sprint("SOURCE ROOT"),
		text.FgHiCyan.Sprint("EXEC ROOT"),
		text.FgHiCyan.Sprint("FEATURES"),
	})
	for _, s := range sorted {
		features := append([]string(nil), s.Features...)
		sort.Strings(features)
		t.AppendRow(table.Row{s.Name, counts[s.Name], s.SourceRoot, s.ExecRoot, strings.Join(features, " ")})
	}
	t.Render()
}

// showTests lists every discovered test, grouped by suite and sorted by
// path within each suite.
func showTests(out io.Writer, cases []*test.Case) {
	sorted := make([]*test.Case, len(cases))
	copy(sorted, cases)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Suite.Name != sorted[j].Suite.Name {
			return sorted[i].Suite.Name < sorted[j].Suite.Name
		}
		return sorted[i].Path < sorted[j].Path
	})

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SUITE"),
		text.FgHiCyan.Sprint("TEST"),
	})
	for _, c := range sorted {
		t.AppendRow(table.Row{c.Suite.Name, c.Path})
	}
	t.Render()
}
