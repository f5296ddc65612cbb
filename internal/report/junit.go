package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path"
	"strings"

	"proctor/internal/test"
)

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Output string `xml:",cdata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

// WriteJUnit writes the JUnit XML report with one testsuite per suite, in
// first-seen order. Failing codes count as failures, UNSUPPORTED counts as
// skipped, everything else as a pass.
func WriteJUnit(outputPath string, cases []*test.Case) error {
	doc := junitSuites{}
	index := make(map[string]int)
	for _, c := range cases {
		// Periods confuse tools that treat JUnit names as dotted class
		// paths.
		name := strings.ReplaceAll(c.Suite.Name, ".", "-")
		i, ok := index[name]
		if !ok {
			i = len(doc.Suites)
			index[name] = i
			doc.Suites = append(doc.Suites, junitSuite{Name: name})
		}
		suite := &doc.Suites[i]

		r := c.Result()
		jc := junitCase{
			ClassName: className(name, c.Path),
			Name:      baseName(c.Path),
			Time:      fmt.Sprintf("%.2f", r.Elapsed.Seconds()),
		}
		switch {
		case r.Code.IsFailure():
			suite.Failures++
			jc.Failure = &junitFailure{Output: r.Output}
		case r.Code == test.Unsupported:
			suite.Skipped++
			jc.Skipped = &junitSkipped{Message: r.Output}
		}
		suite.Tests++
		suite.Cases = append(suite.Cases, jc)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}
	return nil
}

// className derives the dotted JUnit class name from the suite name and
// the test's directory within the suite.
func className(suiteName, testPath string) string {
	dir := path.Dir(testPath)
	if dir == "." || dir == "/" {
		return suiteName
	}
	return suiteName + "." + strings.ReplaceAll(strings.Trim(dir, "/"), "/", ".")
}

func baseName(testPath string) string {
	return path.Base(testPath)
}
