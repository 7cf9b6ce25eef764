package rewrite

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// compiledRule is a rule ready to be applied. err holds the pattern or
// template failure, if any; it is reported every time the rule is applied.
type compiledRule struct {
	id      string
	group   string
	index   int
	pattern string
	re      *regexp.Regexp
	tmpl    template
	err     error
}

func compileRule(g Group, i int) compiledRule {
	r := g.Rules[i]
	cr := compiledRule{
		id:      g.ruleID(i),
		group:   g.Name,
		index:   i,
		pattern: r.Pattern,
	}

	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		cr.err = fmt.Errorf("%w: %v", ErrPattern, err)
		return cr
	}
	tmpl, err := compileTemplate(r.Replacement, re)
	if err != nil {
		cr.err = err
		return cr
	}
	cr.re = re
	cr.tmpl = tmpl
	return cr
}

// apply substitutes every non-overlapping match in text. On failure the
// original text is returned together with the error, so a rule either
// takes effect entirely or not at all.
func (r *compiledRule) apply(text string) (out string, n int, err error) {
	if r.err != nil {
		return text, 0, r.err
	}

	defer func() {
		if p := recover(); p != nil {
			out, n, err = text, 0, fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()

	locs := r.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, 0, nil
	}

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, loc := range locs {
		sb.WriteString(text[last:loc[0]])
		r.tmpl.expand(&sb, text, loc)
		last = loc[1]
	}
	sb.WriteString(text[last:])

	return sb.String(), len(locs), nil
}

type group struct {
	name  string
	rules []compiledRule
}

// Engine applies a catalog to input text. All rules are compiled once in
// NewEngine; an Engine is safe for concurrent use as long as its Observer is.
type Engine struct {
	groups   []group
	size     int
	observer Observer
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the observer notified of conversion activity.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock replaces time.Now for the timing record.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine compiles every rule of c. Rules that fail to compile do not
// make construction fail; they show up as errored outcomes in every Result.
func NewEngine(c *Catalog, opts ...Option) *Engine {
	e := &Engine{
		observer: NopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, g := range c.groups {
		cg := group{name: g.Name, rules: make([]compiledRule, len(g.Rules))}
		for i := range g.Rules {
			cg.rules[i] = compileRule(g, i)
		}
		e.size += len(cg.rules)
		e.groups = append(e.groups, cg)
	}
	return e
}

// Convert applies every rule of every group, in catalog order, to input.
// Each rule runs exactly once over the whole text. A rule that fails is
// recorded as errored and skipped; the conversion itself never fails.
func (e *Engine) Convert(input string) *Result {
	res := &Result{
		ID:       uuid.NewString(),
		Outcomes: make([]Outcome, 0, e.size),
	}
	start := e.now()
	res.Timing.Start = start
	e.observer.ConversionStarted(res.ID, len(input))

	text := input
	for _, g := range e.groups {
		for i := range g.rules {
			r := &g.rules[i]
			outcome := Outcome{
				Rule:    r.id,
				Group:   r.group,
				Index:   r.index,
				Pattern: r.pattern,
			}

			next, n, err := r.apply(text)
			if err != nil {
				outcome.Status = StatusErrored
				outcome.Err = &RuleError{Rule: r.id, Err: err}
				res.Outcomes = append(res.Outcomes, outcome)
				e.observer.RuleFailed(res.ID, outcome)
				continue
			}

			text = next
			outcome.Status = StatusApplied
			outcome.Replacements = n
			res.Outcomes = append(res.Outcomes, outcome)
			e.observer.RuleApplied(res.ID, outcome)
		}
	}

	res.Output = text
	res.Timing.Elapsed = e.now().Sub(start)
	e.observer.ConversionFinished(res)
	return res
}

// Convert is a convenience wrapper compiling c and converting input once.
func Convert(c *Catalog, input string) *Result {
	return NewEngine(c).Convert(input)
}
