package rewrite

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplate marks a malformed replacement template.
	ErrTemplate = errors.New("invalid replacement template")
	// ErrPattern marks a source pattern that does not compile.
	ErrPattern = errors.New("invalid source pattern")
	// ErrPanic marks a fault raised while a substitution was running.
	ErrPanic = errors.New("substitution fault")
)

// RuleError reports a rule that could not be applied.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
