// Package display renders live progress while tests run. The default mode
// prints one line per completed test. Succinct mode drives a progress bar
// and only surfaces failures, and quiet mode shows nothing until the final
// summary.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"proctor/internal/config"
	"proctor/internal/test"
)

const banner = "********************"

// Display receives completion events from arbitrary workers.
type Display interface {
	// PrintHeader announces the run before the first test starts.
	PrintHeader()
	// Update reports one completed test. Safe for concurrent use.
	Update(c *test.Case)
	// Finish flushes any in-place rendering after the pool drains.
	Finish()
}

// New builds the display for the configured mode. numSelected is the
// number of tests about to run, numTotal the number discovered before
// selection.
func New(cfg *config.Config, numSelected, numTotal, workers int, out io.Writer) Display {
	if cfg.Quiet {
		return &nopDisplay{}
	}

	ofTotal := ""
	if numSelected != numTotal {
		ofTotal = fmt.Sprintf(" of %d", numTotal)
	}
	d := &consoleDisplay{
		out:    out,
		cfg:    cfg,
		header: fmt.Sprintf("-- Testing: %d%s tests, %d workers --", numSelected, ofTotal, workers),
		total:  numSelected,
	}
	if cfg.Succinct {
		d.bar = progressbar.NewOptions(numSelected,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Testing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return d
}

type consoleDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	cfg       *config.Config
	header    string
	total     int
	completed int
	bar       *progressbar.ProgressBar
}

func (d *consoleDisplay) PrintHeader() {
	fmt.Fprintln(d.out, d.header)
}

func (d *consoleDisplay) Update(c *test.Case) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.completed++
	r := c.Result()
	if r.Code.IsFailure() || !d.cfg.Succinct {
		if d.bar != nil {
			_ = d.bar.Clear()
		}
		fmt.Fprintf(d.out, "%s: %s (%d of %d)\n", r.Code, c.FullName(), d.completed, d.total)
		if r.Code.IsFailure() && d.cfg.Verbose {
			fmt.Fprintf(d.out, "%s TEST '%s' FAILED %s\n", banner, c.FullName(), banner)
			fmt.Fprintln(d.out, strings.TrimRight(r.Output, "\n"))
			fmt.Fprintln(d.out, banner)
		}
	}
	if d.bar != nil {
		d.bar.Describe(c.FullName())
		_ = d.bar.Add(1)
	}
}

func (d *consoleDisplay) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bar != nil {
		_ = d.bar.Finish()
	}
}

type nopDisplay struct{}

func (*nopDisplay) PrintHeader()      {}
func (*nopDisplay) Update(*test.Case) {}
func (*nopDisplay) Finish()           {}
