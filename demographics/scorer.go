package demographics

import "strings"

// Score computes the weighted demographic similarity between a user and a
// candidate reference case, in [0, 1].
//
// Only attributes present in BOTH profiles are comparable. For each
// comparable attribute the weight counts toward the total; matching values
// (case-insensitive) additionally count toward the matched sum. The result
// is matched/total, a match fraction renormalized over comparable attributes
// only, so a candidate is never penalized for attributes nobody knows.
//
// With no comparable attributes at all the score is 0: absence of
// information yields no boost, never a fabricated neutral score.
func Score(user, candidate Profile, w Weights) float64 {
	w = w.Normalized()

	var matched, total float64

	compare := func(a, b string, weight float64) {
		if a == "" || b == "" {
			return
		}
		total += weight
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
			matched += weight
		}
	}

	compare(user.Ethnicity, candidate.Ethnicity, w.Ethnicity)
	compare(user.SkinType, candidate.SkinType, w.SkinType)
	compare(user.AgeGroup, candidate.AgeGroup, w.AgeGroup)

	if total == 0 {
		return 0
	}

	return matched / total
}
