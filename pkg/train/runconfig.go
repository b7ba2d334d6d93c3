package train

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunConfigFile is the name of the run config written next to saved
// checkpoints, so a later load can rebuild the same pipeline.
const RunConfigFile = "angler.config"

// RunConfig captures the settings a checkpoint was produced with. LoRA and
// quantization settings belong to the encoder runtime and pass through
// untouched.
type RunConfig struct {
	// ModelTarget is the encoder runtime URL; ModelName is the checkpoint
	// the runtime should load. Both are needed to rebuild the pipeline.
	ModelTarget string `json:"model_target"`
	ModelName   string `json:"model_name"`

	MaxLength       int     `json:"max_length"`
	PoolingStrategy string  `json:"pooling_strategy"`
	Causal          bool    `json:"causal"`
	PromptTemplate  string  `json:"prompt_template,omitempty"`
	W1              float64 `json:"w1"`
	W2              float64 `json:"w2"`
	W3              float64 `json:"w3"`
	CosineTau       float64 `json:"cosine_tau"`
	IBNTau          float64 `json:"ibn_tau"`
	AngleTau        float64 `json:"angle_tau"`
	NegativeWeight  float64 `json:"negative_weight"`

	LoRA         json.RawMessage `json:"lora,omitempty"`
	Quantization json.RawMessage `json:"quantization,omitempty"`
}

// Save writes the run config into dir, creating it if needed.
func (rc RunConfig) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating save dir: %w", err)
	}

	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run config: %w", err)
	}

	path := filepath.Join(dir, RunConfigFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run config: %w", err)
	}
	return nil
}

// LoadRunConfig reads the run config from dir. A missing or empty model
// target means the checkpoint cannot be rebuilt into a pipeline.
func LoadRunConfig(dir string) (RunConfig, error) {
	path := filepath.Join(dir, RunConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("reading run config: %w", err)
	}

	var rc RunConfig
	if err := json.Unmarshal(data, &rc); err != nil {
		return RunConfig{}, fmt.Errorf("parsing run config: %w", err)
	}

	if rc.ModelTarget == "" {
		return RunConfig{}, fmt.Errorf("%w: run config has no model target", ErrBadModelPath)
	}

	return rc, nil
}
