package selection

import (
	"math/rand"
	"os"
	"sort"
	"time"

	"proctor/internal/config"
	"proctor/internal/test"
)

// Order arranges the selected tests in place according to the configured
// policy.
func Order(cases []*test.Case, cfg *config.Config) {
	switch cfg.Order {
	case config.OrderShuffle:
		rand.Shuffle(len(cases), func(i, j int) {
			cases[i], cases[j] = cases[j], cases[i]
		})
	case config.OrderIncremental:
		sortByMTime(cases)
	default:
		sort.SliceStable(cases, func(i, j int) bool {
			if cases[i].Early != cases[j].Early {
				return cases[i].Early
			}
			return cases[i].FullName() < cases[j].FullName()
		})
	}
}

// sortByMTime orders most recently modified tests first, so tests touched
// by the incremental cache after a failure run again early. Tests whose
// backing file cannot be read sort as the oldest; ties keep their selection
// order.
func sortByMTime(cases []*test.Case) {
	mtimes := make([]time.Time, len(cases))
	order := make([]int, len(cases))
	for i, c := range cases {
		mtimes[i] = mtime(c)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return mtimes[order[a]].After(mtimes[order[b]])
	})

	sorted := make([]*test.Case, len(cases))
	for i, idx := range order {
		sorted[i] = cases[idx]
	}
	copy(cases, sorted)
}

// mtime returns the modification time of the test's backing file, or the
// zero time when the file is inaccessible.
func mtime(c *test.Case) time.Time {
	info, err := os.Stat(c.FilePath())
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// UpdateIncrementalCache marks a failed test's backing file as just
// modified, so the next incremental run fronts it. Touch errors are
// ignored: a read-only checkout simply loses the reordering hint.
func UpdateIncrementalCache(c *test.Case) {
	r := c.Result()
	if r == nil || !r.Code.IsFailure() {
		return
	}
	now := time.Now()
	_ = os.Chtimes(c.FilePath(), now, now)
}
