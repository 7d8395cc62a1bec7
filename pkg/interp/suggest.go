package interp

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxEditDistance bounds how far a typo may be from a suggested name.
const maxEditDistance = 2

// visibleNames collects every name reachable from scope, innermost first.
func visibleNames(scope *Scope) []string {
	seen := make(map[string]bool)
	var names []string
	for sc := scope; sc != nil; sc = sc.parent {
		for _, name := range sc.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// suggest returns the closest visible name to target, or "" when nothing
// is close enough. Abbreviations match through fuzzy ranking; typos fall
// back to edit distance.
func suggest(target string, candidates []string) string {
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", maxEditDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func undefinedName(line int, name string, scope *Scope) error {
	err := fmt.Errorf("%w: '%s'", ErrUndefinedName, name)
	if s := suggest(name, visibleNames(scope)); s != "" {
		err = fmt.Errorf("%w: '%s' (did you mean '%s'?)", ErrUndefinedName, name, s)
	}
	return &RuntimeError{Line: line, Op: "name", Err: err}
}
