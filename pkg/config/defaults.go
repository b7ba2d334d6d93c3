package config

const (
	defaultModelTarget = "http://localhost:8230"
	defaultModelName   = "encoder-base"

	defaultTokenizerProvider = "tiktoken"
	defaultEncoding          = "cl100k_base"

	// tiktoken encodings carry no pad token; negative means unset.
	defaultPadTokenID = -1

	defaultMaxLength       = 512
	defaultPoolingStrategy = "cls"
	defaultW1              = 1.0
	defaultW2              = 1.0
	defaultW3              = 1.0
	defaultCosineTau       = 20.0
	defaultIBNTau          = 20.0
	defaultAngleTau        = 1.0
	defaultBatchSize       = 32
	defaultEpochs          = 1

	// Below -1 means search for the accuracy-optimal threshold.
	defaultEvalThreshold = -2.0

	defaultVectorProvider   = "sqlitevec"
	defaultVectorDimensions = 768
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Model: ModelConfig{
			Target: defaultModelTarget,
			Name:   defaultModelName,
		},
		Tokenizer: TokenizerConfig{
			Provider:   defaultTokenizerProvider,
			Encoding:   defaultEncoding,
			PadTokenID: defaultPadTokenID,
		},
		Train: TrainConfig{
			MaxLength:       defaultMaxLength,
			PoolingStrategy: defaultPoolingStrategy,
			W1:              defaultW1,
			W2:              defaultW2,
			W3:              defaultW3,
			CosineTau:       defaultCosineTau,
			IBNTau:          defaultIBNTau,
			AngleTau:        defaultAngleTau,
			BatchSize:       defaultBatchSize,
			Epochs:          defaultEpochs,
		},
		Eval: EvalConfig{
			Threshold: defaultEvalThreshold,
			BatchSize: defaultBatchSize,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Dimensions: defaultVectorDimensions,
		},
	}
}
