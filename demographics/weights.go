package demographics

// Weights is an immutable blend configuration passed by value per call.
//
// Demographic controls the blend between the visual and demographic signals;
// the three attribute weights control the demographic score itself and are
// renormalized to sum to 1 before use.
type Weights struct {
	// Demographic is the share of the blended score driven by demographic
	// similarity, in [0, 1]. The visual share is 1 - Demographic.
	Demographic float64

	// Per-attribute weights for the demographic score. Ethnicity dominates
	// by default because it correlates most strongly with skin-response
	// baselines.
	Ethnicity float64
	SkinType  float64
	AgeGroup  float64
}

// DefaultWeights are the process-wide defaults, overridable per call.
var DefaultWeights = Weights{
	Demographic: 0.3,
	Ethnicity:   0.6,
	SkinType:    0.3,
	AgeGroup:    0.1,
}

// Visual returns the visual share of the blend, 1 - Demographic.
func (w Weights) Visual() float64 {
	return 1 - w.Demographic
}

// Normalized returns a copy with Demographic clamped to [0, 1] and the three
// attribute weights rescaled to sum to 1. Non-positive attribute weights are
// treated as 0; if all three are non-positive the defaults are substituted
// so the scorer never divides by zero.
func (w Weights) Normalized() Weights {
	out := w

	if out.Demographic < 0 {
		out.Demographic = 0
	}
	if out.Demographic > 1 {
		out.Demographic = 1
	}

	if out.Ethnicity < 0 {
		out.Ethnicity = 0
	}
	if out.SkinType < 0 {
		out.SkinType = 0
	}
	if out.AgeGroup < 0 {
		out.AgeGroup = 0
	}

	sum := out.Ethnicity + out.SkinType + out.AgeGroup
	if sum == 0 {
		out.Ethnicity = DefaultWeights.Ethnicity
		out.SkinType = DefaultWeights.SkinType
		out.AgeGroup = DefaultWeights.AgeGroup
		sum = out.Ethnicity + out.SkinType + out.AgeGroup
	}

	out.Ethnicity /= sum
	out.SkinType /= sum
	out.AgeGroup /= sum

	return out
}
