// Package report turns the completed test list into its output forms: the
// console failure groups and summary, the JSON document, the JUnit XML
// document and the timing histogram. Reporters consume the canonical test
// list in selection order and never look at completion order.
package report

import "fmt"

// WriteError reports a failure producing a report file. Results already
// computed are unaffected; the caller surfaces the error at the end of the
// run.
type WriteError struct {
	Path string
	Err  error
}

func (we *WriteError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", we.Path, we.Err)
}

func (we *WriteError) Unwrap() error {
	return we.Err
}
