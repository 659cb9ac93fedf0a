// Package cascade applies ordered regex lists to text, most specific first.
package cascade

import (
	"regexp"
	"strings"
)

// Match is a usable hit produced by one pattern of a cascade.
type Match struct {
	// Value is the trimmed first capture group, or the whole match when the
	// pattern has no groups.
	Value string
	// Groups holds every submatch of the hit, Groups[0] being the whole match.
	Groups []string
	// Pattern is the index of the pattern that produced the hit.
	Pattern int
	// Start and End are byte offsets of the whole match within the text.
	Start, End int
}

// Cascade is an ordered, immutable list of compiled patterns for one field.
// It is safe for concurrent use.
type Cascade struct {
	name     string
	patterns []*regexp.Regexp
	skipped  []string
}

// New compiles exprs case-insensitively. Expressions that fail to compile are
// left out and reported by Skipped; they behave as permanent non-matches.
func New(name string, exprs ...string) *Cascade {
	c := &Cascade{name: name}
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			c.skipped = append(c.skipped, expr)
			continue
		}
		c.patterns = append(c.patterns, re)
	}
	return c
}

// Name returns the field the cascade extracts.
func (c *Cascade) Name() string { return c.name }

// Len returns the number of usable patterns.
func (c *Cascade) Len() int { return len(c.patterns) }

// Skipped lists expressions that did not compile.
func (c *Cascade) Skipped() []string { return c.skipped }

// First tries each pattern in order and returns the first usable hit.
func (c *Cascade) First(text string) (Match, bool) {
	return c.FirstFunc(text, nil)
}

// FirstFunc is First with an extra acceptance test on each candidate hit.
func (c *Cascade) FirstFunc(text string, accept func(Match) bool) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	for i, re := range c.patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			m, ok := build(text, loc, i)
			if !ok {
				continue
			}
			if accept != nil && !accept(m) {
				continue
			}
			return m, true
		}
	}
	return Match{}, false
}

// All collects the usable captures of every pattern, in pattern order then
// text order, dropping duplicates while keeping the first occurrence.
func (c *Cascade) All(text string) []string {
	var out []string
	if text == "" {
		return out
	}
	seen := map[string]struct{}{}
	for i, re := range c.patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			m, ok := build(text, loc, i)
			if !ok {
				continue
			}
			if _, dup := seen[m.Value]; dup {
				continue
			}
			seen[m.Value] = struct{}{}
			out = append(out, m.Value)
		}
	}
	return out
}

func build(text string, loc []int, pattern int) (Match, bool) {
	groups := make([]string, len(loc)/2)
	for g := range groups {
		if loc[2*g] >= 0 {
			groups[g] = text[loc[2*g]:loc[2*g+1]]
		}
	}
	value := groups[0]
	if len(groups) > 1 {
		value = groups[1]
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Match{}, false
	}
	return Match{
		Value:   value,
		Groups:  groups,
		Pattern: pattern,
		Start:   loc[0],
		End:     loc[1],
	}, true
}
