package match

import (
	"cmp"
	"slices"
)

// DefaultSuggestThreshold is the minimum score Suggest reports.
const DefaultSuggestThreshold = 0.5

// Candidate is a known name scored against an unknown one.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is ordered best first.
type CandidateList []Candidate

// Rank scores every known name against target. The result is sorted by
// score descending, then by name.
func Rank(target string, known []string) CandidateList {
	ft := Fold(target)

	out := make(CandidateList, len(known))
	for i, name := range known {
		out[i] = Candidate{Name: name, Score: Similarity(ft, Fold(name))}
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}

// Suggest returns up to n known names similar enough to target to be a
// plausible typo, best first. An exact match is never suggested.
func Suggest(target string, known []string, n int) []string {
	var out []string

	for _, c := range Rank(target, known) {
		if len(out) == n || c.Score < DefaultSuggestThreshold {
			break
		}

		if c.Name != target {
			out = append(out, c.Name)
		}
	}

	return out
}

// Best returns the best candidate, or nil if there are none.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}

	return &c[0]
}

// Unambiguous returns the best candidate when it scores at least minScore
// and leads the runner-up by at least minGap.
func (c CandidateList) Unambiguous(minScore, minGap float64) *Candidate {
	best := c.Best()
	if best == nil || best.Score < minScore {
		return nil
	}

	if len(c) > 1 && best.Score-c[1].Score < minGap {
		return nil
	}

	return best
}
