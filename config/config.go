// Package config holds the tunables for every stage of the retrieval
// pipeline. Defaults come from SPEC_FULL.md §6; values can be overridden
// from environment variables via caarlos0/env, or loaded from a JSON file
// the way the teacher's own Config.Save round-trips settings. Precedence,
// highest to lowest: environment variables, config file, defaults.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds every tunable of the retrieval pipeline.
type Config struct {
	// BM25 tuning.
	K1 float64 `env:"FUNDRAG_BM25_K1" json:"k1" validate:"gt=0"`
	B  float64 `env:"FUNDRAG_BM25_B" json:"b" validate:"gte=0,lte=1"`

	// Candidate breadth.
	KBM25 int `env:"FUNDRAG_K_BM25" json:"k_bm25" validate:"gt=0"`
	KANN  int `env:"FUNDRAG_K_ANN" json:"k_ann" validate:"gt=0"`

	// Final-score fusion weights; must sum to 1.0 (checked by WeightsSumToOne).
	WeightSemantic float64 `env:"FUNDRAG_W_SEM" json:"w_sem" validate:"gte=0,lte=1"`
	WeightMetadata float64 `env:"FUNDRAG_W_META" json:"w_meta" validate:"gte=0,lte=1"`
	WeightFuzzy    float64 `env:"FUNDRAG_W_FUZZ" json:"w_fuzz" validate:"gte=0,lte=1"`

	// Soft numeric matching.
	PartialCreditBand float64 `env:"FUNDRAG_PARTIAL_CREDIT_BAND" json:"partial_credit_band" validate:"gte=0,lte=1"`

	// Dense index.
	EmbeddingDim int    `env:"FUNDRAG_EMBEDDING_DIM" json:"embedding_dim" validate:"gte=0"`
	DenseBackend string `env:"FUNDRAG_DENSE_BACKEND" json:"dense_backend" validate:"oneof=memory chromem milvus"`
	DenseAddress string `env:"FUNDRAG_DENSE_ADDRESS" json:"dense_address"`

	// Candidate pool sizing.
	SmallPoolThreshold int `env:"FUNDRAG_SMALL_POOL_THRESHOLD" json:"small_pool_threshold" validate:"gt=0"`

	// Description synthesis.
	DescriptionTokenBudget int `env:"FUNDRAG_DESCRIPTION_TOKEN_BUDGET" json:"description_token_budget" validate:"gt=0"`

	// Operational settings.
	Timeout   time.Duration `env:"FUNDRAG_TIMEOUT" json:"timeout" validate:"gt=0"`
	LogLevel  string        `env:"FUNDRAG_LOG_LEVEL" json:"log_level" validate:"oneof=off error warn info debug"`
	SentryDSN string        `env:"FUNDRAG_SENTRY_DSN" json:"-"`
}

// Default returns the configuration described in SPEC_FULL.md §6.
func Default() *Config {
	return &Config{
		K1:                     1.5,
		B:                      0.75,
		KBM25:                  50,
		KANN:                   50,
		WeightSemantic:         0.6,
		WeightMetadata:         0.3,
		WeightFuzzy:            0.1,
		PartialCreditBand:      0.20,
		EmbeddingDim:           0, // resolved from manifest at load time
		DenseBackend:           "memory",
		SmallPoolThreshold:     200,
		DescriptionTokenBudget: 256,
		Timeout:                10 * time.Second,
		LogLevel:               "info",
	}
}

// Load builds a Config from defaults, then an optional JSON file, then
// environment variable overrides.
//
// Config file search order when path is empty:
//  1. $FUNDRAG_CONFIG
//  2. ./fundrag.json
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FUNDRAG_CONFIG")
		if path == "" {
			if _, err := os.Stat("fundrag.json"); err == nil {
				path = "fundrag.json"
			}
		}
	}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct-level field constraints via go-playground/validator.
// It does not check the fusion-weight sum; call WeightsSumToOne for that.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Save persists the configuration as JSON, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// WeightsSumToOne reports whether the fusion weights sum to 1.0 within
// floating-point tolerance, as required by SPEC_FULL.md §6.
func (c *Config) WeightsSumToOne() bool {
	sum := c.WeightSemantic + c.WeightMetadata + c.WeightFuzzy
	return sum > 0.999 && sum < 1.001
}
