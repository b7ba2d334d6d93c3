package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/angler/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .angler/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the sorted list of all supported configuration key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}

	// Return in a stable, logical order matching the TOML section layout.
	ordered := []string{
		"model.target",
		"model.name",
		"model.causal",
		"tokenizer.provider",
		"tokenizer.encoding",
		"tokenizer.vocab_path",
		"tokenizer.pad_token_id",
		"train.max_length",
		"train.pooling_strategy",
		"train.w1",
		"train.w2",
		"train.w3",
		"train.cosine_tau",
		"train.ibn_tau",
		"train.angle_tau",
		"train.negative_weight",
		"train.batch_size",
		"train.epochs",
		"train.prompt_template",
		"train.save_dir",
		"eval.threshold",
		"eval.batch_size",
		"vector_store.provider",
		"vector_store.db_path",
		"vector_store.dimensions",
	}

	// Sanity: only return keys that actually exist in the map.
	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	seen := make(map[string]bool, len(result))
	for _, k := range result {
		seen[k] = true
	}
	for _, k := range keys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .angler/
// directory. If the file does not exist, returns NewDefaultConfig() so callers
// always receive a fully-populated Config with sane defaults. Fields
// explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Model.Target == "" {
		cfg.Model.Target = defaults.Model.Target
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = defaults.Model.Name
	}

	if cfg.Tokenizer.Provider == "" {
		cfg.Tokenizer.Provider = defaults.Tokenizer.Provider
	}
	if cfg.Tokenizer.Encoding == "" {
		cfg.Tokenizer.Encoding = defaults.Tokenizer.Encoding
	}
	if cfg.Tokenizer.PadTokenID == 0 {
		cfg.Tokenizer.PadTokenID = defaults.Tokenizer.PadTokenID
	}

	if cfg.Train.MaxLength == 0 {
		cfg.Train.MaxLength = defaults.Train.MaxLength
	}
	if cfg.Train.PoolingStrategy == "" {
		cfg.Train.PoolingStrategy = defaults.Train.PoolingStrategy
	}
	if cfg.Train.W1 == 0 && cfg.Train.W2 == 0 && cfg.Train.W3 == 0 {
		cfg.Train.W1 = defaults.Train.W1
		cfg.Train.W2 = defaults.Train.W2
		cfg.Train.W3 = defaults.Train.W3
	}
	if cfg.Train.CosineTau == 0 {
		cfg.Train.CosineTau = defaults.Train.CosineTau
	}
	if cfg.Train.IBNTau == 0 {
		cfg.Train.IBNTau = defaults.Train.IBNTau
	}
	if cfg.Train.AngleTau == 0 {
		cfg.Train.AngleTau = defaults.Train.AngleTau
	}
	if cfg.Train.BatchSize == 0 {
		cfg.Train.BatchSize = defaults.Train.BatchSize
	}
	if cfg.Train.Epochs == 0 {
		cfg.Train.Epochs = defaults.Train.Epochs
	}

	if cfg.Eval.Threshold == 0 {
		cfg.Eval.Threshold = defaults.Eval.Threshold
	}
	if cfg.Eval.BatchSize == 0 {
		cfg.Eval.BatchSize = defaults.Eval.BatchSize
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = defaults.VectorStore.Provider
	}
	if cfg.VectorStore.Dimensions == 0 {
		cfg.VectorStore.Dimensions = defaults.VectorStore.Dimensions
	}
}

// SaveConfig persists the configuration to config.toml in the target .angler/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named backbone
// family. Supported presets: "bert", "llama".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	base := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "bert":
		base.Model.Causal = false
		base.Model.Name = "bert-base-uncased"
		base.Tokenizer.Provider = "vocab"
		base.Train.PoolingStrategy = "cls"
		return base, nil

	case "llama":
		base.Model.Causal = true
		base.Model.Name = "llama-base"
		base.Tokenizer.Provider = "tiktoken"
		base.Tokenizer.PadTokenID = 0
		base.Train.PoolingStrategy = "cls"
		return base, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: bert, llama)", name)
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"bert", "llama"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
