package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogIsImmutable(t *testing.T) {
	t.Parallel()
	rules := []Rule{{Name: "r", Pattern: `a`, Replacement: `b`}}
	c := NewCatalog(Group{Name: "g", Rules: rules})

	rules[0].Replacement = "mutated"
	assert.Equal(t, "b", c.Groups()[0].Rules[0].Replacement)

	groups := c.Groups()
	groups[0].Rules[0].Pattern = "z"
	groups[0].Name = "renamed"
	assert.Equal(t, "a", c.Groups()[0].Rules[0].Pattern)
	assert.Equal(t, "g", c.Groups()[0].Name)
}

func TestCatalogLookup(t *testing.T) {
	t.Parallel()
	c := NewCatalog(
		Group{Name: "first", Rules: []Rule{{Pattern: `a`}, {Pattern: `b`}}},
		Group{Name: "second", Rules: []Rule{{Pattern: `c`}}},
	)

	assert.Equal(t, 3, c.Len())

	g, ok := c.Group("second")
	assert.True(t, ok)
	assert.Len(t, g.Rules, 1)

	_, ok = c.Group("missing")
	assert.False(t, ok)
}

func TestCatalogFingerprint(t *testing.T) {
	t.Parallel()
	build := func(replacement string) *Catalog {
		return NewCatalog(Group{Name: "g", Rules: []Rule{{Pattern: `a`, Replacement: replacement}}})
	}

	assert.Equal(t, build("b").Fingerprint(), build("b").Fingerprint())
	assert.NotEqual(t, build("b").Fingerprint(), build("c").Fingerprint())

	// field boundaries are part of the hash
	left := NewCatalog(Group{Name: "g", Rules: []Rule{{Pattern: `ab`, Replacement: `c`}}})
	right := NewCatalog(Group{Name: "g", Rules: []Rule{{Pattern: `a`, Replacement: `bc`}}})
	assert.NotEqual(t, left.Fingerprint(), right.Fingerprint())
}
