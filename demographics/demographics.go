// Package demographics models the categorical attributes used to re-rank
// visually similar reference cases: ethnicity, skin type and age group.
//
// Ranking quality for skin analysis depends on comparing a user against
// reference cases with a similar skin baseline, not just visually similar
// images. This package provides the profile type, the configurable attribute
// weights and the match scorer that turn those attributes into a similarity
// signal in [0, 1].
package demographics

import "strings"

// Attribute keys recognized by profiles, lookups and the scorer.
const (
	KeyEthnicity = "ethnicity"
	KeySkinType  = "skin_type"
	KeyAgeGroup  = "age_group"
)

// Profile holds the demographic attributes of a user or reference case.
// An empty field means the attribute is unknown and is excluded from scoring.
type Profile struct {
	Ethnicity string `json:"ethnicity,omitempty"`
	SkinType  string `json:"skin_type,omitempty"`
	AgeGroup  string `json:"age_group,omitempty"`
}

// IsEmpty reports whether no attribute is known.
func (p Profile) IsEmpty() bool {
	return p.Ethnicity == "" && p.SkinType == "" && p.AgeGroup == ""
}

// FromMap builds a Profile from a loosely typed attribute map, such as one
// decoded from a metadata store. Unrecognized keys are ignored; key matching
// is case-insensitive.
func FromMap(m map[string]string) Profile {
	var p Profile
	for k, v := range m {
		switch strings.ToLower(strings.TrimSpace(k)) {
		case KeyEthnicity:
			p.Ethnicity = v
		case KeySkinType:
			p.SkinType = v
		case KeyAgeGroup:
			p.AgeGroup = v
		}
	}
	return p
}

// Map returns the known attributes as a map, omitting unknown ones.
func (p Profile) Map() map[string]string {
	m := make(map[string]string, 3)
	if p.Ethnicity != "" {
		m[KeyEthnicity] = p.Ethnicity
	}
	if p.SkinType != "" {
		m[KeySkinType] = p.SkinType
	}
	if p.AgeGroup != "" {
		m[KeyAgeGroup] = p.AgeGroup
	}
	return m
}
