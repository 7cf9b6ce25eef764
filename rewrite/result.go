package rewrite

import (
	"encoding/json"
	"time"
)

// Status is the outcome of applying one rule.
type Status string

const (
	// StatusApplied means the substitution ran to completion,
	// whether or not anything matched.
	StatusApplied Status = "applied"
	// StatusErrored means the rule could not be applied and the
	// text was left as it was before the rule.
	StatusErrored Status = "errored"
)

// Outcome records what happened to one rule during a conversion.
type Outcome struct {
	Rule         string
	Group        string
	Index        int
	Pattern      string
	Status       Status
	Replacements int
	Err          error
}

// MarshalJSON renders Err as its message.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type outcomeJSON struct {
		Rule         string `json:"rule"`
		Group        string `json:"group"`
		Index        int    `json:"index"`
		Pattern      string `json:"pattern"`
		Status       Status `json:"status"`
		Replacements int    `json:"replacements"`
		Error        string `json:"error,omitempty"`
	}
	out := outcomeJSON{
		Rule:         o.Rule,
		Group:        o.Group,
		Index:        o.Index,
		Pattern:      o.Pattern,
		Status:       o.Status,
		Replacements: o.Replacements,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// Timing is the advisory timing record of a conversion.
type Timing struct {
	Start   time.Time     `json:"start"`
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the output of one Convert call.
type Result struct {
	ID       string    `json:"id"`
	Output   string    `json:"-"`
	Outcomes []Outcome `json:"outcomes"`
	Timing   Timing    `json:"timing"`
}

// Errored returns the outcomes of rules that failed, in application order.
func (r *Result) Errored() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusErrored {
			out = append(out, o)
		}
	}
	return out
}

// Replacements returns the total number of substitutions made.
func (r *Result) Replacements() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Replacements
	}
	return n
}

// Changed reports whether the output differs from input.
func (r *Result) Changed(input string) bool {
	return r.Output != input
}
