package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent angler configuration stored as config.toml
// in the .angler/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Model       ModelConfig       `toml:"model"`
	Tokenizer   TokenizerConfig   `toml:"tokenizer"`
	Train       TrainConfig       `toml:"train"`
	Eval        EvalConfig        `toml:"eval"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
}

// ModelConfig holds backbone encoder settings.
type ModelConfig struct {
	// Target is the encoder runtime URL.
	Target string `toml:"target,omitempty"`

	// Name is the checkpoint the runtime should load.
	Name string `toml:"name,omitempty"`

	// Causal switches pooling to the last-non-pad-token rule for
	// decoder-only backbones.
	Causal bool `toml:"causal,omitempty"`
}

// TokenizerConfig holds tokenizer settings.
type TokenizerConfig struct {
	// Provider selects the tokenizer implementation ("tiktoken" or "vocab").
	Provider string `toml:"provider,omitempty"`

	// Encoding is the tiktoken encoding name.
	Encoding string `toml:"encoding,omitempty"`

	// VocabPath is the vocabulary file for the vocab provider.
	VocabPath string `toml:"vocab_path,omitempty"`

	// PadTokenID assigns a pad token id for tokenizers that lack one.
	// Negative means unset.
	PadTokenID int `toml:"pad_token_id,omitempty"`
}

// TrainConfig holds training pipeline settings.
type TrainConfig struct {
	MaxLength       int     `toml:"max_length,omitempty"`
	PoolingStrategy string  `toml:"pooling_strategy,omitempty"`
	W1              float64 `toml:"w1,omitempty"`
	W2              float64 `toml:"w2,omitempty"`
	W3              float64 `toml:"w3,omitempty"`
	CosineTau       float64 `toml:"cosine_tau,omitempty"`
	IBNTau          float64 `toml:"ibn_tau,omitempty"`
	AngleTau        float64 `toml:"angle_tau,omitempty"`
	NegativeWeight  float64 `toml:"negative_weight,omitempty"`
	BatchSize       int     `toml:"batch_size,omitempty"`
	Epochs          int     `toml:"epochs,omitempty"`
	PromptTemplate  string  `toml:"prompt_template,omitempty"`
	SaveDir         string  `toml:"save_dir,omitempty"`
}

// EvalConfig holds evaluation settings.
type EvalConfig struct {
	// Threshold is the fixed decision threshold. Values below -1 mean
	// search for the optimal one.
	Threshold float64 `toml:"threshold,omitempty"`

	BatchSize int `toml:"batch_size,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	DBPath     string `toml:"db_path,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func floatKey(field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			return strconv.FormatFloat(*field(c), 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			*field(c) = f
			return nil
		},
	}
}

func intKey(field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"model.target": {
		get: func(c *Config) string { return c.Model.Target },
		set: func(c *Config, v string) error { c.Model.Target = v; return nil },
	},
	"model.name": {
		get: func(c *Config) string { return c.Model.Name },
		set: func(c *Config, v string) error { c.Model.Name = v; return nil },
	},
	"model.causal": {
		get: func(c *Config) string { return strconv.FormatBool(c.Model.Causal) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for model.causal: %w", err)
			}
			c.Model.Causal = b
			return nil
		},
	},
	"tokenizer.provider": {
		get: func(c *Config) string { return c.Tokenizer.Provider },
		set: func(c *Config, v string) error { c.Tokenizer.Provider = v; return nil },
	},
	"tokenizer.encoding": {
		get: func(c *Config) string { return c.Tokenizer.Encoding },
		set: func(c *Config, v string) error { c.Tokenizer.Encoding = v; return nil },
	},
	"tokenizer.vocab_path": {
		get: func(c *Config) string { return c.Tokenizer.VocabPath },
		set: func(c *Config, v string) error { c.Tokenizer.VocabPath = v; return nil },
	},
	"tokenizer.pad_token_id": intKey(func(c *Config) *int { return &c.Tokenizer.PadTokenID }),
	"train.max_length":       intKey(func(c *Config) *int { return &c.Train.MaxLength }),
	"train.pooling_strategy": {
		get: func(c *Config) string { return c.Train.PoolingStrategy },
		set: func(c *Config, v string) error { c.Train.PoolingStrategy = v; return nil },
	},
	"train.w1":              floatKey(func(c *Config) *float64 { return &c.Train.W1 }),
	"train.w2":              floatKey(func(c *Config) *float64 { return &c.Train.W2 }),
	"train.w3":              floatKey(func(c *Config) *float64 { return &c.Train.W3 }),
	"train.cosine_tau":      floatKey(func(c *Config) *float64 { return &c.Train.CosineTau }),
	"train.ibn_tau":         floatKey(func(c *Config) *float64 { return &c.Train.IBNTau }),
	"train.angle_tau":       floatKey(func(c *Config) *float64 { return &c.Train.AngleTau }),
	"train.negative_weight": floatKey(func(c *Config) *float64 { return &c.Train.NegativeWeight }),
	"train.batch_size":      intKey(func(c *Config) *int { return &c.Train.BatchSize }),
	"train.epochs":          intKey(func(c *Config) *int { return &c.Train.Epochs }),
	"train.prompt_template": {
		get: func(c *Config) string { return c.Train.PromptTemplate },
		set: func(c *Config, v string) error { c.Train.PromptTemplate = v; return nil },
	},
	"train.save_dir": {
		get: func(c *Config) string { return c.Train.SaveDir },
		set: func(c *Config, v string) error { c.Train.SaveDir = v; return nil },
	},
	"eval.threshold":  floatKey(func(c *Config) *float64 { return &c.Eval.Threshold }),
	"eval.batch_size": intKey(func(c *Config) *int { return &c.Eval.BatchSize }),
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.db_path": {
		get: func(c *Config) string { return c.VectorStore.DBPath },
		set: func(c *Config, v string) error { c.VectorStore.DBPath = v; return nil },
	},
	"vector_store.dimensions": {
		get: func(c *Config) string {
			if c.VectorStore.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.VectorStore.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for vector_store.dimensions: %w", err)
			}
			c.VectorStore.Dimensions = uint(n)
			return nil
		},
	},
}
