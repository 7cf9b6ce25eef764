package rewrite

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Rule maps a source pattern to a replacement template.
type Rule struct {
	Name        string `yaml:"name,omitempty"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Group is a named, ordered sequence of rules for one tag family.
type Group struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// ruleID returns the identifier of the rule at position i (0-based) in g.
func (g Group) ruleID(i int) string {
	name := g.Rules[i].Name
	if name == "" {
		name = strconv.Itoa(i + 1)
	}
	return g.Name + "/" + name
}

func (g Group) clone() Group {
	rules := make([]Rule, len(g.Rules))
	copy(rules, g.Rules)
	return Group{Name: g.Name, Rules: rules}
}

// Catalog is an ordered, immutable collection of rule groups.
// It is safe for concurrent use.
type Catalog struct {
	groups []Group
}

// NewCatalog builds a catalog from groups, in the given order.
// The groups are copied; later changes to the arguments have no effect.
func NewCatalog(groups ...Group) *Catalog {
	c := &Catalog{groups: make([]Group, len(groups))}
	for i, g := range groups {
		c.groups[i] = g.clone()
	}
	return c
}

// Groups returns a copy of the catalog's groups in application order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = g.clone()
	}
	return out
}

// Group looks up a group by name.
func (c *Catalog) Group(name string) (Group, bool) {
	for _, g := range c.groups {
		if g.Name == name {
			return g.clone(), true
		}
	}
	return Group{}, false
}

// Len returns the total number of rules.
func (c *Catalog) Len() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.Rules)
	}
	return n
}

// Fingerprint returns a stable hash of the catalog's rule data.
// Two catalogs with the same groups and rules in the same order
// share a fingerprint.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}
	for _, g := range c.groups {
		write(g.Name)
		for _, r := range g.Rules {
			write(r.Name)
			write(r.Pattern)
			write(r.Replacement)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
