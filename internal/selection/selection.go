// Package selection narrows the discovered tests to the set one invocation
// runs and arranges them in execution order. Selection applies three stages
// in a fixed order: filter by full name, take this invocation's shard, cap
// the count. Ordering runs after selection, so a capped run always covers
// the same tests regardless of ordering policy.
package selection

import (
	"fmt"
	"strings"

	"proctor/internal/config"
	"proctor/internal/test"
	"proctor/pkg/logging"
)

// Select returns the tests this invocation runs. The shard stage emits an
// informational note describing the partition so cooperating invocations
// can be checked against each other.
func Select(cases []*test.Case, cfg *config.Config, diag *config.Diagnostics) []*test.Case {
	selected := cases
	if cfg.Filter != nil {
		selected = filterTests(selected, cfg)
	}
	if cfg.Sharded() {
		selected = shardTests(selected, cfg, diag)
	}
	if cfg.MaxTests > 0 && len(selected) > cfg.MaxTests {
		selected = selected[:cfg.MaxTests]
	}
	logging.Debug("Selection", "selected %d of %d tests", len(selected), len(cases))
	return selected
}

// filterTests keeps the tests whose full name matches the filter. The match
// is unanchored, so the expression may hit anywhere in the name.
func filterTests(cases []*test.Case, cfg *config.Config) []*test.Case {
	kept := make([]*test.Case, 0, len(cases))
	for _, c := range cases {
		if cfg.Filter.MatchString(c.FullName()) {
			kept = append(kept, c)
		}
	}
	return kept
}

// shardTests keeps the tests whose zero-based index falls into this
// invocation's shard: index mod NumShards == RunShard-1. The user views
// tests and shard numbers counting from 1.
func shardTests(cases []*test.Case, cfg *config.Config, diag *config.Diagnostics) []*test.Case {
	var kept []*test.Case
	var indexes []int
	for i := cfg.RunShard - 1; i < len(cases); i += cfg.NumShards {
		kept = append(kept, cases[i])
		indexes = append(indexes, i)
	}

	// Preview the first few one-based indices alongside the arithmetic
	// expression, for clarity.
	const previewLen = 3
	var parts []string
	for _, i := range indexes {
		if len(parts) == previewLen {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%d", i+1))
	}
	diag.Note("Selecting shard %d/%d = size %d/%d = tests #(%d*k)+%d = [%s]",
		cfg.RunShard, cfg.NumShards,
		len(kept), len(cases),
		cfg.NumShards, cfg.RunShard, strings.Join(parts, ", "))

	return kept
}
