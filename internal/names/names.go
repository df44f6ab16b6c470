// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package names is the single comparison primitive for people names: page
// matching, file name filtering, and employee filter resolution all go
// through Normalize and Contains so the three agree.
package names

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips diacritics and collapses whitespace runs
// into single spaces. "  Légeron\n Zoé " becomes "legeron zoe".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Transformers carry state, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Contains reports whether the normalized needle occurs in the normalized
// haystack. An empty needle never matches.
func Contains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}

// Matcher answers Contains for many needles with one pass over the haystack.
// Find(h) returns exactly the indices i for which Contains(h, needles[i]).
type Matcher struct {
	ac     *ahocorasick.Matcher
	groups [][]int // pattern index -> needle indices sharing that pattern
}

// NewMatcher builds a matcher over needles. Needles that normalize to the
// empty string never match.
func NewMatcher(needles []string) *Matcher {
	seen := make(map[string]int)
	var patterns [][]byte
	var groups [][]int
	for i, needle := range needles {
		p := Normalize(needle)
		if p == "" {
			continue
		}
		j, ok := seen[p]
		if !ok {
			j = len(patterns)
			seen[p] = j
			patterns = append(patterns, []byte(p))
			groups = append(groups, nil)
		}
		groups[j] = append(groups[j], i)
	}

	m := &Matcher{groups: groups}
	if len(patterns) > 0 {
		m.ac = ahocorasick.NewMatcher(patterns)
	}
	return m
}

// Find returns the indices of the needles contained in haystack, ascending.
func (m *Matcher) Find(haystack string) []int {
	if m.ac == nil {
		return nil
	}
	h := Normalize(haystack)
	if h == "" {
		return nil
	}

	hit := make(map[int]bool)
	for _, p := range m.ac.MatchThreadSafe([]byte(h)) {
		for _, i := range m.groups[p] {
			hit[i] = true
		}
	}
	out := make([]int, 0, len(hit))
	for i := range hit {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
