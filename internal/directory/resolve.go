// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package directory

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pdiddy/payslip-splitter/internal/names"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

// Resolve returns the first employee whose full name or handle contains
// filter, compared through names.Contains.
func Resolve(employees []types.Employee, filter string) (types.Employee, bool) {
	for _, e := range employees {
		if names.Contains(e.FullName, filter) || names.Contains(e.Handle, filter) {
			return e, true
		}
	}
	return types.Employee{}, false
}

// Suggest returns up to n full names close to filter, best first. Names that
// contain filter's letters in order rank by fuzzy distance; otherwise last
// names within a small edit distance are kept.
func Suggest(employees []types.Employee, filter string, n int) []string {
	query := names.Normalize(filter)
	if query == "" || n <= 0 {
		return nil
	}
	maxEdits := max(2, len(query)/3)

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, e := range employees {
		d := fuzzy.RankMatchNormalizedFold(query, e.FullName)
		if d < 0 {
			d = fuzzy.LevenshteinDistance(query, names.Normalize(e.LastName))
			if d > maxEdits {
				continue
			}
		}
		cands = append(cands, candidate{name: e.FullName, dist: d})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})

	out := make([]string, 0, min(n, len(cands)))
	for _, c := range cands {
		if len(out) == n {
			break
		}
		out = append(out, c.name)
	}
	return out
}
