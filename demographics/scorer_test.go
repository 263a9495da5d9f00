package demographics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	user := Profile{Ethnicity: "east-asian", SkinType: "oily", AgeGroup: "25-34"}

	t.Run("FullMatch", func(t *testing.T) {
		assert.InDelta(t, 1.0, Score(user, user, DefaultWeights), 1e-9)
	})

	t.Run("NoMatch", func(t *testing.T) {
		candidate := Profile{Ethnicity: "nordic", SkinType: "dry", AgeGroup: "55-64"}
		assert.InDelta(t, 0.0, Score(user, candidate, DefaultWeights), 1e-9)
	})

	t.Run("PartialMatch", func(t *testing.T) {
		// Ethnicity matches (0.6), skin type and age group do not.
		candidate := Profile{Ethnicity: "east-asian", SkinType: "dry", AgeGroup: "55-64"}
		assert.InDelta(t, 0.6, Score(user, candidate, DefaultWeights), 1e-9)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		candidate := Profile{Ethnicity: "East-Asian", SkinType: "OILY", AgeGroup: "25-34"}
		assert.InDelta(t, 1.0, Score(user, candidate, DefaultWeights), 1e-9)
	})

	t.Run("RenormalizesOverComparableAttributes", func(t *testing.T) {
		// Candidate only knows skin type, and it matches: the score is 1
		// over the single comparable attribute, not 0.3 of the total.
		candidate := Profile{SkinType: "oily"}
		assert.InDelta(t, 1.0, Score(user, candidate, DefaultWeights), 1e-9)
	})

	t.Run("EmptyCandidate", func(t *testing.T) {
		assert.Equal(t, 0.0, Score(user, Profile{}, DefaultWeights))
	})

	t.Run("EmptyUser", func(t *testing.T) {
		candidate := Profile{Ethnicity: "east-asian"}
		assert.Equal(t, 0.0, Score(Profile{}, candidate, DefaultWeights))
	})

	t.Run("DisjointKnownAttributes", func(t *testing.T) {
		// User knows ethnicity, candidate knows age group: nothing is
		// comparable, so the score is 0.
		assert.Equal(t, 0.0, Score(
			Profile{Ethnicity: "east-asian"},
			Profile{AgeGroup: "25-34"},
			DefaultWeights,
		))
	})

	t.Run("CustomWeights", func(t *testing.T) {
		// {2, 1, 1} renormalizes to {0.5, 0.25, 0.25}. A candidate matching
		// skin type and age group but not ethnicity scores 0.5.
		w := Weights{Demographic: 0.3, Ethnicity: 2, SkinType: 1, AgeGroup: 1}
		candidate := Profile{Ethnicity: "nordic", SkinType: "oily", AgeGroup: "25-34"}
		assert.InDelta(t, 0.5, Score(user, candidate, w), 1e-9)
	})
}

func TestWeightsNormalized(t *testing.T) {
	t.Run("Renormalization", func(t *testing.T) {
		w := Weights{Demographic: 0.3, Ethnicity: 2, SkinType: 1, AgeGroup: 1}.Normalized()
		assert.InDelta(t, 0.5, w.Ethnicity, 1e-9)
		assert.InDelta(t, 0.25, w.SkinType, 1e-9)
		assert.InDelta(t, 0.25, w.AgeGroup, 1e-9)
	})

	t.Run("ClampsDemographic", func(t *testing.T) {
		assert.Equal(t, 0.0, Weights{Demographic: -1}.Normalized().Demographic)
		assert.Equal(t, 1.0, Weights{Demographic: 2}.Normalized().Demographic)
	})

	t.Run("AllZeroFallsBackToDefaults", func(t *testing.T) {
		w := Weights{}.Normalized()
		assert.InDelta(t, DefaultWeights.Ethnicity, w.Ethnicity, 1e-9)
		assert.InDelta(t, DefaultWeights.SkinType, w.SkinType, 1e-9)
		assert.InDelta(t, DefaultWeights.AgeGroup, w.AgeGroup, 1e-9)
	})

	t.Run("Visual", func(t *testing.T) {
		assert.InDelta(t, 0.7, Weights{Demographic: 0.3}.Visual(), 1e-9)
	})
}

func TestFromMap(t *testing.T) {
	p := FromMap(map[string]string{
		"Ethnicity": "east-asian",
		"SKIN_TYPE": "oily",
		"age_group": "25-34",
		"ignored":   "x",
	})

	assert.Equal(t, "east-asian", p.Ethnicity)
	assert.Equal(t, "oily", p.SkinType)
	assert.Equal(t, "25-34", p.AgeGroup)
}
