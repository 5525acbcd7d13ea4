// Package selector decides which manifest nodes to document. The pipeline
// only depends on the Selector function type, so interactive selection stays
// out of the headless code path.
package selector

import "sort"

// Candidate is one selectable node.
type Candidate struct {
	ID         string
	Name       string
	Documented bool
}

// Selector returns the chosen node ids out of the offered candidates.
type Selector func(candidates []Candidate) ([]string, error)

// All selects every candidate.
func All() Selector {
	return func(candidates []Candidate) ([]string, error) {
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}
		sort.Strings(ids)
		return ids, nil
	}
}

// Fixed selects candidates by model name. Unknown names are ignored.
func Fixed(names ...string) Selector {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	return func(candidates []Candidate) ([]string, error) {
		var ids []string
		for _, c := range candidates {
			if wanted[c.Name] {
				ids = append(ids, c.ID)
			}
		}
		sort.Strings(ids)
		return ids, nil
	}
}
