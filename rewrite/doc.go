// Package rewrite implements an ordered, rule-based text rewriting engine.
//
// A Catalog holds named groups of rules. Each rule pairs a source pattern,
// an RE2 regular expression, with a replacement template. Templates refer
// to the pattern's capture groups through holes:
//
//	:[1]      positional group 1 (:[0] is the whole match)
//	:[name]   named group (?P<name>...)
//	\:        a literal ':' (any character after '\' is literal)
//
// Holes may appear in any order and any number of times, so a template
// can reorder captures:
//
//	pattern:     <logic:equal\s+value="(?P<value>[^"]+)"\s*name="(?P<name>[^"]+)"\s*/?>
//	replacement: <c:if test="${:[name] == :[value]}">
//
// An Engine compiles a catalog once and folds it over input text: groups in
// catalog order, rules in group order, each rule applied exactly once as a
// global substitution. A rule that cannot be applied, because its pattern
// or template is malformed or because the substitution faulted, is recorded
// as errored and leaves the text untouched; the remaining rules still run.
//
// Usage:
//
//	engine := rewrite.NewEngine(catalog, rewrite.WithObserver(rewrite.NewLogObserver(logger)))
//	res := engine.Convert(source)
//	for _, o := range res.Errored() {
//	    fmt.Println(o.Err)
//	}
//	fmt.Print(res.Output)
package rewrite
