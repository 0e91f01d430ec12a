// Package validator checks pattern code and typed world outputs before they
// reach core state. Both entry points are pure functions: they never mutate
// anything and return every broken rule, not just the first.
//
// The pattern checks are string-level heuristics over the mini pattern
// dialect, not a full parser. They are deliberately conservative: the goal
// is to keep host-language constructs and known-bad call shapes out of the
// shared board, accepting that an exotic-but-legal pattern may occasionally
// be rejected.
package validator

import "fmt"

// Result is the outcome of a validation: Accepted is true iff Errors is
// empty. Warnings accompany accepted submissions and are surfaced to the
// caller unchanged.
type Result struct {
	Accepted bool     `json:"accepted"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// finalize sets Accepted from the collected errors and normalizes nil slices
// so JSON encodes [] rather than null.
func (r *Result) finalize() Result {
	r.Accepted = len(r.Errors) == 0
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	return *r
}
