// Package skinmatch provides the similarity-search backbone for an
// image-based skin analysis product.
//
// Given a feature vector derived from a user's photo, the engine finds the
// most relevant previously indexed reference cases and ranks them not by raw
// visual closeness alone but by how well they match the user along
// demographic axes (ethnicity, skin type, age group).
//
// # Quick Start
//
//	ctx := context.Background()
//	engine, _ := skinmatch.New(512,
//	    skinmatch.WithLookup(lookup),    // metadata store for reference cases
//	    skinmatch.WithLogger(skinmatch.NewTextLogger(slog.LevelInfo)),
//	)
//
//	engine.Add(ctx, "case-1", vector)
//
//	results := engine.SearchWithDemographics(ctx, query, demographics.Profile{
//	    Ethnicity: "east-asian",
//	    SkinType:  "oily",
//	}, 10)
//
// # Ranking Model
//
// Vectors are unit-normalized on insert and compared by squared L2 distance,
// which on unit vectors equals 2 - 2*cos, so ascending distance order is
// exactly descending cosine-similarity order. The re-ranking stage then
// blends in demographic similarity:
//
//	blended = visualWeight*distance - demographicWeight*similarity
//
// keeping "lower = better" throughout.
//
// # Degradation Model
//
// This subsystem is a best-effort ranking signal inside a larger product
// that must stay available when degraded. Soft failures (dimension
// mismatches, degenerate vectors, empty index, metadata outages) are logged
// and recovered locally; Search and SearchWithDemographics always return a
// well-formed, possibly empty, result.
package skinmatch
