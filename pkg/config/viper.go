package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/angler/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ANGLER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ANGLER_MODEL_TARGET, ANGLER_TRAIN_EPOCHS, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ANGLER_MODEL_TARGET, ANGLER_TRAIN_W1, etc.
	v.SetEnvPrefix("ANGLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Model
	v.SetDefault("model.target", d.Model.Target)
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.causal", d.Model.Causal)

	// Tokenizer
	v.SetDefault("tokenizer.provider", d.Tokenizer.Provider)
	v.SetDefault("tokenizer.encoding", d.Tokenizer.Encoding)
	v.SetDefault("tokenizer.vocab_path", d.Tokenizer.VocabPath)
	v.SetDefault("tokenizer.pad_token_id", d.Tokenizer.PadTokenID)

	// Train
	v.SetDefault("train.max_length", d.Train.MaxLength)
	v.SetDefault("train.pooling_strategy", d.Train.PoolingStrategy)
	v.SetDefault("train.w1", d.Train.W1)
	v.SetDefault("train.w2", d.Train.W2)
	v.SetDefault("train.w3", d.Train.W3)
	v.SetDefault("train.cosine_tau", d.Train.CosineTau)
	v.SetDefault("train.ibn_tau", d.Train.IBNTau)
	v.SetDefault("train.angle_tau", d.Train.AngleTau)
	v.SetDefault("train.negative_weight", d.Train.NegativeWeight)
	v.SetDefault("train.batch_size", d.Train.BatchSize)
	v.SetDefault("train.epochs", d.Train.Epochs)
	v.SetDefault("train.prompt_template", d.Train.PromptTemplate)
	v.SetDefault("train.save_dir", d.Train.SaveDir)

	// Eval
	v.SetDefault("eval.threshold", d.Eval.Threshold)
	v.SetDefault("eval.batch_size", d.Eval.BatchSize)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.db_path", d.VectorStore.DBPath)
	v.SetDefault("vector_store.dimensions", d.VectorStore.Dimensions)
}
