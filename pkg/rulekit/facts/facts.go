// Package facts holds the fact base: a normalized, append-only set of atomic
// propositions known to be true.
package facts

import (
	"sort"
	"strings"
)

// Normalize lower-cases and trims a fact. Every comparison and insertion goes
// through it so that "Fever " and "fever" are the same fact.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Base is a set of normalized facts. Facts are never retracted.
type Base struct {
	set map[string]struct{}
}

// New creates a fact base seeded with the given facts.
func New(seed ...string) *Base {
	b := &Base{set: make(map[string]struct{}, len(seed))}
	for _, f := range seed {
		b.Add(f)
	}
	return b
}

// Add normalizes text and inserts it. Adding a known fact is a no-op.
// It reports whether the fact was new.
func (b *Base) Add(text string) bool {
	if b.set == nil {
		b.set = make(map[string]struct{})
	}
	f := Normalize(text)
	if _, ok := b.set[f]; ok {
		return false
	}
	b.set[f] = struct{}{}
	return true
}

// Contains reports whether the normalized fact is known.
func (b *Base) Contains(fact string) bool {
	_, ok := b.set[Normalize(fact)]
	return ok
}

// Len returns the number of known facts.
func (b *Base) Len() int {
	return len(b.set)
}

// Sorted returns the facts in lexicographic order.
func (b *Base) Sorted() []string {
	out := make([]string, 0, len(b.set))
	for f := range b.set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy, used for read-only snapshots.
func (b *Base) Clone() *Base {
	c := &Base{set: make(map[string]struct{}, len(b.set))}
	for f := range b.set {
		c.set[f] = struct{}{}
	}
	return c
}
