package report

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"time"

	"proctor/internal/test"
)

// Report schema version, bumped when the document shape changes.
var schemaVersion = []int{1, 0, 0}

// Fields are declared alphabetically so the marshalled keys come out
// sorted, matching the map keys encoding/json sorts on its own.
type jsonReport struct {
	Version []int      `json:"__version__"`
	Elapsed float64    `json:"elapsed"`
	Tests   []jsonTest `json:"tests"`
}

type jsonTest struct {
	Code    string             `json:"code"`
	Elapsed float64            `json:"elapsed"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Name    string             `json:"name"`
	Output  string             `json:"output"`
}

// WriteJSON writes the machine-readable report. Micro-results are
// flattened into the top-level list directly after their parent under
// "parent:key" names, so consumers never recurse.
func WriteJSON(path string, cases []*test.Case, elapsed time.Duration) error {
	doc := jsonReport{
		Version: schemaVersion,
		Elapsed: elapsed.Seconds(),
		Tests:   make([]jsonTest, 0, len(cases)),
	}
	for _, c := range cases {
		r := c.Result()
		doc.Tests = append(doc.Tests, jsonTest{
			Code:    r.Code.String(),
			Elapsed: r.Elapsed.Seconds(),
			Metrics: r.Metrics(),
			Name:    c.FullName(),
			Output:  r.Output,
		})
		micro := r.MicroResults()
		for _, key := range sortedKeys(micro) {
			m := micro[key]
			doc.Tests = append(doc.Tests, jsonTest{
				Code:    m.Code.String(),
				Elapsed: m.Elapsed.Seconds(),
				Metrics: m.Metrics(),
				Name:    c.FullName() + ":" + key,
				Output:  m.Output,
			})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func sortedKeys(m map[string]*test.Result) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
