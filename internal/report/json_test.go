package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/test"
)

func TestWriteJSON(t *testing.T) {
	suite := &test.Suite{Name: "suite"}
	passing := completedCase(suite, "ok.txt", test.Pass, "all good", 1500*time.Millisecond)
	require.NoError(t, passing.Result().AddMetric("compile_time", 0.25))

	failing := completedCase(suite, "bad.txt", test.Fail, "exit <status> 1", 2*time.Second)
	require.NoError(t, failing.Result().AddMicroResult("zeta", test.NewResult(test.Pass, "", time.Second)))
	require.NoError(t, failing.Result().AddMicroResult("alpha", test.NewResult(test.Fail, "sub failed", time.Second)))

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteJSON(path, []*test.Case{passing, failing}, 3700*time.Millisecond))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	// Layout requirements: sorted keys, two-space indent, no HTML
	// escaping, trailing newline.
	assert.True(t, strings.HasSuffix(text, "}\n"), "missing trailing newline")
	assert.Contains(t, text, "\n  \"__version__\": [")
	assert.Contains(t, text, "exit <status> 1")
	assert.Less(t, strings.Index(text, "\"__version__\""), strings.Index(text, "\"elapsed\""))
	assert.Less(t, strings.Index(text, "\"elapsed\""), strings.Index(text, "\"tests\""))
	first := text[strings.Index(text, "{\n      "):]
	assert.Less(t, strings.Index(first, "\"code\""), strings.Index(first, "\"elapsed\""))
	assert.Less(t, strings.Index(first, "\"elapsed\""), strings.Index(first, "\"name\""))
	assert.Less(t, strings.Index(first, "\"name\""), strings.Index(first, "\"output\""))

	var doc struct {
		Version []int   `json:"__version__"`
		Elapsed float64 `json:"elapsed"`
		Tests   []struct {
			Code    string             `json:"code"`
			Elapsed float64            `json:"elapsed"`
			Metrics map[string]float64 `json:"metrics"`
			Name    string             `json:"name"`
			Output  string             `json:"output"`
		} `json:"tests"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, []int{1, 0, 0}, doc.Version)
	assert.InDelta(t, 3.7, doc.Elapsed, 0.001)
	require.Len(t, doc.Tests, 4)

	// Micro-results flatten directly after their parent, in key order.
	assert.Equal(t, "suite :: ok.txt", doc.Tests[0].Name)
	assert.Equal(t, "PASS", doc.Tests[0].Code)
	assert.Equal(t, map[string]float64{"compile_time": 0.25}, doc.Tests[0].Metrics)
	assert.Equal(t, "suite :: bad.txt", doc.Tests[1].Name)
	assert.Equal(t, "suite :: bad.txt:alpha", doc.Tests[2].Name)
	assert.Equal(t, "sub failed", doc.Tests[2].Output)
	assert.Equal(t, "suite :: bad.txt:zeta", doc.Tests[3].Name)
	assert.InDelta(t, 1.5, doc.Tests[0].Elapsed, 0.001)
}

func TestWriteJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteJSON(path, nil, 0))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\"tests\": []")
}

func TestWriteJSONError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "results.json")
	err := WriteJSON(path, nil, 0)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, path, we.Path)
	assert.Contains(t, err.Error(), "failed to write report")
}
