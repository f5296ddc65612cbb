package report

import "proctor/internal/test"

// Summary classifies completed tests by result code. Group members keep
// their selection order.
type Summary struct {
	byCode      map[test.Code][]*test.Case
	total       int
	hasFailures bool
}

// Aggregate builds the summary over tests that finished with a result.
func Aggregate(cases []*test.Case) *Summary {
	s := &Summary{byCode: make(map[test.Code][]*test.Case)}
	for _, c := range cases {
		code := c.Result().Code
		s.byCode[code] = append(s.byCode[code], c)
		s.total++
		if code.IsFailure() {
			s.hasFailures = true
		}
	}
	return s
}

// ByCode returns the tests that finished with the given code.
func (s *Summary) ByCode(code test.Code) []*test.Case {
	return s.byCode[code]
}

// Count returns how many tests finished with the given code.
func (s *Summary) Count(code test.Code) int {
	return len(s.byCode[code])
}

// Total returns how many tests the summary covers.
func (s *Summary) Total() int {
	return s.total
}

// HasFailures reports whether any test finished with a failing code.
func (s *Summary) HasFailures() bool {
	return s.hasFailures
}
