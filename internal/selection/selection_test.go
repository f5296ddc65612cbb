package selection

import (
	"bytes"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/config"
	"proctor/internal/test"
)

// makeCases builds n cases named test-01 .. test-n in one suite.
func makeCases(n int) []*test.Case {
	suite := &test.Suite{Name: "suite", SourceRoot: "/src"}
	cases := make([]*test.Case, 0, n)
	for i := 1; i <= n; i++ {
		cases = append(cases, &test.Case{
			Suite: suite,
			Path:  fmt.Sprintf("test-%02d", i),
		})
	}
	return cases
}

func names(cases []*test.Case) []string {
	var out []string
	for _, c := range cases {
		out = append(out, c.Path)
	}
	return out
}

func TestSelectNoRestrictions(t *testing.T) {
	var buf bytes.Buffer
	cases := makeCases(4)

	selected := Select(cases, &config.Config{}, config.NewDiagnostics(&buf))

	assert.Equal(t, names(cases), names(selected))
	assert.Empty(t, buf.String())
}

func TestSelectFilter(t *testing.T) {
	var buf bytes.Buffer
	suite := &test.Suite{Name: "discovery"}
	cases := []*test.Case{
		{Suite: suite, Path: "one.txt"},
		{Suite: suite, Path: "two.txt"},
		{Suite: suite, Path: "three.txt"},
	}
	cfg := &config.Config{Filter: regexp.MustCompile(`o[a-z]e`)}

	selected := Select(cases, cfg, config.NewDiagnostics(&buf))

	assert.Equal(t, []string{"one.txt", "three.txt"}, names(selected))
}

func TestSelectShardPartition(t *testing.T) {
	// Five tests across three shards: sizes 2, 2, 1; every test in
	// exactly one shard.
	tests := []struct {
		runShard string
		expected []string
		note     string
	}{
		{
			runShard: "1",
			expected: []string{"test-01", "test-04"},
			note:     "proctor: note: Selecting shard 1/3 = size 2/5 = tests #(3*k)+1 = [1, 4]\n",
		},
		{
			runShard: "2",
			expected: []string{"test-02", "test-05"},
			note:     "proctor: note: Selecting shard 2/3 = size 2/5 = tests #(3*k)+2 = [2, 5]\n",
		},
		{
			runShard: "3",
			expected: []string{"test-03"},
			note:     "proctor: note: Selecting shard 3/3 = size 1/5 = tests #(3*k)+3 = [3]\n",
		},
	}

	seen := make(map[string]int)
	for _, tt := range tests {
		t.Run("shard "+tt.runShard, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{NumShards: 3}
			_, err := fmt.Sscanf(tt.runShard, "%d", &cfg.RunShard)
			require.NoError(t, err)

			selected := Select(makeCases(5), cfg, config.NewDiagnostics(&buf))

			assert.Equal(t, tt.expected, names(selected))
			assert.Equal(t, tt.note, buf.String())
			for _, name := range names(selected) {
				seen[name]++
			}
		})
	}

	// Disjoint and complete.
	require.Len(t, seen, 5)
	for name, count := range seen {
		assert.Equal(t, 1, count, "test %s appeared in %d shards", name, count)
	}
}

func TestSelectShardPreviewTruncation(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{NumShards: 2, RunShard: 1}

	selected := Select(makeCases(10), cfg, config.NewDiagnostics(&buf))

	assert.Len(t, selected, 5)
	assert.Equal(t,
		"proctor: note: Selecting shard 1/2 = size 5/10 = tests #(2*k)+1 = [1, 3, 5, ...]\n",
		buf.String())
}

func TestSelectMoreShardsThanTests(t *testing.T) {
	tests := []struct {
		runShard int
		expected []string
		note     string
	}{
		{
			runShard: 2,
			expected: []string{"test-02"},
			note:     "proctor: note: Selecting shard 2/100 = size 1/5 = tests #(100*k)+2 = [2]\n",
		},
		{
			runShard: 6,
			expected: nil,
			note:     "proctor: note: Selecting shard 6/100 = size 0/5 = tests #(100*k)+6 = []\n",
		},
		{
			runShard: 50,
			expected: nil,
			note:     "proctor: note: Selecting shard 50/100 = size 0/5 = tests #(100*k)+50 = []\n",
		},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shard %d", tt.runShard), func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{NumShards: 100, RunShard: tt.runShard}

			selected := Select(makeCases(5), cfg, config.NewDiagnostics(&buf))

			assert.Equal(t, tt.expected, names(selected))
			assert.Equal(t, tt.note, buf.String())
		})
	}
}

func TestSelectFilterRunsBeforeShard(t *testing.T) {
	// Shard indices are computed on the filtered sequence, so the same
	// filter+shard settings agree across cooperating invocations.
	var buf bytes.Buffer
	suite := &test.Suite{Name: "suite"}
	cases := []*test.Case{
		{Suite: suite, Path: "keep-1"},
		{Suite: suite, Path: "drop-1"},
		{Suite: suite, Path: "keep-2"},
		{Suite: suite, Path: "keep-3"},
	}
	cfg := &config.Config{
		Filter:    regexp.MustCompile(`keep`),
		NumShards: 2,
		RunShard:  1,
	}

	selected := Select(cases, cfg, config.NewDiagnostics(&buf))

	assert.Equal(t, []string{"keep-1", "keep-3"}, names(selected))
	assert.Contains(t, buf.String(), "size 2/3")
}

func TestSelectCap(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{MaxTests: 3}

	selected := Select(makeCases(5), cfg, config.NewDiagnostics(&buf))

	assert.Equal(t, []string{"test-01", "test-02", "test-03"}, names(selected))
}

func TestSelectCapLargerThanSelection(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{MaxTests: 50}

	selected := Select(makeCases(5), cfg, config.NewDiagnostics(&buf))

	assert.Len(t, selected, 5)
}

func TestSelectCapAppliesBeforeOrdering(t *testing.T) {
	// The cap keeps a prefix of the selection-ordered sequence; shuffling
	// afterwards only permutes that subset.
	var buf bytes.Buffer
	cfg := &config.Config{MaxTests: 3, Order: config.OrderShuffle}

	selected := Select(makeCases(10), cfg, config.NewDiagnostics(&buf))
	Order(selected, cfg)

	require.Len(t, selected, 3)
	assert.ElementsMatch(t, []string{"test-01", "test-02", "test-03"}, names(selected))
}

func TestSelectAndOrderDeterministic(t *testing.T) {
	// Two passes over the same discovery output produce the same sequence.
	// Only the shuffle policy is exempt from this.
	var buf bytes.Buffer
	cfg := &config.Config{
		Filter:    regexp.MustCompile(`test-0[2-9]`),
		NumShards: 2,
		RunShard:  1,
		Order:     config.OrderDefault,
	}
	diag := config.NewDiagnostics(&buf)

	first := Select(makeCases(12), cfg, diag)
	Order(first, cfg)
	second := Select(makeCases(12), cfg, diag)
	Order(second, cfg)

	assert.Equal(t, names(first), names(second))
}
