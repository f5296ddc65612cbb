// Package discovery locates suite manifests beneath the input paths and
// turns them into the ordered set of test cases the pipeline runs.
//
// A manifest is a YAML file named proctor.yaml (or *.proctor.yaml) defining
// one suite: its name, roots, available features, and the tests it contains.
// Test names are slash-separated paths; the file source_root/name backs the
// test for modification-time ordering.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"proctor/internal/test"
	"proctor/pkg/logging"
)

// Loader discovers test suites and cases beneath input paths.
type Loader interface {
	// Load walks the given paths and returns every discovered suite and
	// its cases. Cases keep discovery order: input paths in the order
	// given, manifests within a directory in lexical walk order, tests
	// within a manifest in declaration order. A path that is itself a
	// manifest file is loaded directly.
	Load(paths []string) ([]*test.Suite, []*test.Case, error)
}

// manifest mirrors the YAML layout of a suite definition file.
type manifest struct {
	Suite      string            `yaml:"suite"`
	SourceRoot string            `yaml:"source_root,omitempty"`
	ExecRoot   string            `yaml:"exec_root,omitempty"`
	Features   []string          `yaml:"features,omitempty"`
	MinVersion string            `yaml:"min_version,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
	Tests      []testEntry       `yaml:"tests"`
}

// testEntry mirrors one tests[] element of a manifest.
type testEntry struct {
	Name     string            `yaml:"name"`
	Command  string            `yaml:"command"`
	Early    bool              `yaml:"early,omitempty"`
	XFail    bool              `yaml:"xfail,omitempty"`
	Requires []string          `yaml:"requires,omitempty"`
	Retries  int               `yaml:"retries,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
}

// manifestLoader implements the Loader interface.
type manifestLoader struct {
	// seen guards against loading the same manifest twice when input
	// paths overlap.
	seen map[string]bool
}

// NewLoader creates a manifest loader.
func NewLoader() Loader {
	return &manifestLoader{seen: make(map[string]bool)}
}

// Load walks the input paths and collects suites and cases.
func (l *manifestLoader) Load(paths []string) ([]*test.Suite, []*test.Case, error) {
	var suites []*test.Suite
	var cases []*test.Case

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("test path does not exist: %s", path)
		}

		if info.IsDir() {
			dirSuites, dirCases, err := l.loadFromDirectory(path)
			if err != nil {
				return nil, nil, err
			}
			suites = append(suites, dirSuites...)
			cases = append(cases, dirCases...)
			continue
		}

		if !isManifestFile(path) {
			return nil, nil, fmt.Errorf("%s is not a suite manifest", path)
		}
		suite, suiteCases, err := l.loadManifest(path)
		if err != nil {
			return nil, nil, err
		}
		if suite != nil {
			suites = append(suites, suite)
			cases = append(cases, suiteCases...)
		}
	}

	logging.Debug("Discovery", "discovered %d suites with %d tests", len(suites), len(cases))
	return suites, cases, nil
}

// loadFromDirectory walks a directory tree for manifest files.
func (l *manifestLoader) loadFromDirectory(dirPath string) ([]*test.Suite, []*test.Case, error) {
	var suites []*test.Suite
	var cases []*test.Case

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isManifestFile(path) {
			return nil
		}

		suite, suiteCases, err := l.loadManifest(path)
		if err != nil {
			return err
		}
		if suite != nil {
			suites = append(suites, suite)
			cases = append(cases, suiteCases...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	return suites, cases, nil
}

// loadManifest reads, parses, and validates a single manifest file. It
// returns a nil suite for a manifest that was already loaded through an
// overlapping input path.
func (l *manifestLoader) loadManifest(path string) (*test.Suite, []*test.Case, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve manifest path %s: %w", path, err)
	}
	if l.seen[abs] {
		return nil, nil, nil
	}
	l.seen[abs] = true

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	if err := validateManifest(&m); err != nil {
		return nil, nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	suite := &test.Suite{
		Name:       m.Suite,
		SourceRoot: resolveRoot(dir, m.SourceRoot),
		Features:   m.Features,
		MinVersion: m.MinVersion,
		Env:        m.Env,
	}
	if m.ExecRoot != "" {
		suite.ExecRoot = resolveRoot(dir, m.ExecRoot)
	} else {
		suite.ExecRoot = suite.SourceRoot
	}

	cases := make([]*test.Case, 0, len(m.Tests))
	for _, entry := range m.Tests {
		cases = append(cases, &test.Case{
			Suite:    suite,
			Path:     entry.Name,
			Command:  entry.Command,
			Early:    entry.Early,
			XFail:    entry.XFail,
			Requires: entry.Requires,
			Retries:  entry.Retries,
			Env:      entry.Env,
		})
	}

	logging.Debug("Discovery", "loaded suite %s from %s (%d tests)", suite.Name, path, len(cases))
	return suite, cases, nil
}

// validateManifest checks required fields before any paths are resolved.
func validateManifest(m *manifest) error {
	if m.Suite == "" {
		return fmt.Errorf("suite name is required")
	}

	names := make(map[string]bool, len(m.Tests))
	for i, entry := range m.Tests {
		if entry.Name == "" {
			return fmt.Errorf("test %d: name is required", i+1)
		}
		if entry.Command == "" {
			return fmt.Errorf("test %q: command is required", entry.Name)
		}
		if entry.Retries < 0 {
			return fmt.Errorf("test %q: retries cannot be negative", entry.Name)
		}
		if names[entry.Name] {
			return fmt.Errorf("test %q: duplicate name", entry.Name)
		}
		names[entry.Name] = true
	}
	return nil
}

// resolveRoot resolves a manifest-relative root directory.
func resolveRoot(manifestDir, root string) string {
	if root == "" {
		return manifestDir
	}
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(manifestDir, root)
}

// isManifestFile checks if a path names a suite manifest.
func isManifestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == "proctor.yaml" || strings.HasSuffix(base, ".proctor.yaml")
}
