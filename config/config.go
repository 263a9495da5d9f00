// Package config loads engine configuration from YAML files and environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dermalens/skinmatch/demographics"
)

// WeightsConfig configures the score blend. Attribute weights are
// renormalized to sum to 1 before use.
type WeightsConfig struct {
	Demographic float64 `mapstructure:"demographic"`
	Ethnicity   float64 `mapstructure:"ethnicity"`
	SkinType    float64 `mapstructure:"skin_type"`
	AgeGroup    float64 `mapstructure:"age_group"`
}

// LookupConfig configures the metadata lookup on the query path.
type LookupConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
	CacheSize   int           `mapstructure:"cache_size"`
}

// IndexConfig configures the embedding index.
type IndexConfig struct {
	Dimension    int    `mapstructure:"dimension"`
	SnapshotPath string `mapstructure:"snapshot_path"`
	Compression  string `mapstructure:"compression"`
}

// Config holds the complete engine configuration.
type Config struct {
	Index   IndexConfig   `mapstructure:"index"`
	Weights WeightsConfig `mapstructure:"weights"`
	Lookup  LookupConfig  `mapstructure:"lookup"`
}

// BlendWeights converts the configured blend into demographics.Weights.
func (c *Config) BlendWeights() demographics.Weights {
	return demographics.Weights{
		Demographic: c.Weights.Demographic,
		Ethnicity:   c.Weights.Ethnicity,
		SkinType:    c.Weights.SkinType,
		AgeGroup:    c.Weights.AgeGroup,
	}
}

// Load reads configuration from the given file (optional) and from
// SKINMATCH_* environment variables, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("index.dimension", 512)
	v.SetDefault("index.compression", "zstd")
	v.SetDefault("weights.demographic", demographics.DefaultWeights.Demographic)
	v.SetDefault("weights.ethnicity", demographics.DefaultWeights.Ethnicity)
	v.SetDefault("weights.skin_type", demographics.DefaultWeights.SkinType)
	v.SetDefault("weights.age_group", demographics.DefaultWeights.AgeGroup)
	v.SetDefault("lookup.timeout", 250*time.Millisecond)
	v.SetDefault("lookup.concurrency", 8)
	v.SetDefault("lookup.cache_size", 4096)

	v.SetEnvPrefix("SKINMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}
