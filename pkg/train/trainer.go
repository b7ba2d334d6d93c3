// Package train glues the pipeline together: tokenize pairs, collate,
// forward through the backbone, pool, and score with the composite loss.
// Gradient application lives behind the Optimizer collaborator; the encoder
// runtime owns weights, scheduling, and checkpoints.
package train

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/papercomputeco/angler/pkg/backbone"
	"github.com/papercomputeco/angler/pkg/batch"
	"github.com/papercomputeco/angler/pkg/dataset"
	"github.com/papercomputeco/angler/pkg/loss"
	"github.com/papercomputeco/angler/pkg/metrics"
	"github.com/papercomputeco/angler/pkg/pairs"
	"github.com/papercomputeco/angler/pkg/pooling"
	"github.com/papercomputeco/angler/pkg/tokenizer"
)

// Optimizer applies one update for a computed batch loss. Implementations
// front the encoder runtime's gradient machinery.
type Optimizer interface {
	Step(ctx context.Context, loss float64) error
}

// Config holds the trainer's pipeline settings.
type Config struct {
	// MaxLength bounds each text's token count.
	MaxLength int

	// PoolingStrategy selects how hidden states collapse to embeddings.
	PoolingStrategy pooling.Strategy

	// Causal switches to last-non-pad-token pooling for decoder-only
	// backbones.
	Causal bool

	// PromptTemplate, when set, wraps each text before encoding. It must
	// contain a {text} placeholder.
	PromptTemplate string

	// Loss configures the composite objective.
	Loss loss.Config
}

// Trainer runs training steps and evaluation over pair records.
type Trainer struct {
	backbone backbone.Encoder
	tok      tokenizer.Tokenizer
	enc      *pairs.Encoder
	pooler   *pooling.Pooler
	loss     *loss.Loss
	collator batch.Collator
	cfg      Config
	logger   *zap.Logger
}

// New builds a trainer. The tokenizer's pad token, when it has one, drives
// both batch padding and causal sequence-end detection.
func New(enc backbone.Encoder, tok tokenizer.Tokenizer, cfg Config, logger *zap.Logger) (*Trainer, error) {
	if enc == nil {
		return nil, ErrNoBackbone
	}
	if tok == nil {
		return nil, ErrNoTokenizer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolingStrategy == "" {
		cfg.PoolingStrategy = pooling.CLS
	}

	padID, padErr := tok.SpecialTokenID(tokenizer.TokPad)

	var poolOpts []pooling.Option
	if cfg.Causal {
		if padErr == nil {
			poolOpts = append(poolOpts, pooling.WithCausal(padID))
		} else {
			poolOpts = append(poolOpts, pooling.WithCausalNoPad())
		}
	}
	pooler, err := pooling.New(cfg.PoolingStrategy, poolOpts...)
	if err != nil {
		return nil, err
	}

	var encOpts []pairs.Option
	if cfg.PromptTemplate != "" {
		encOpts = append(encOpts, pairs.WithTemplate(cfg.PromptTemplate))
	}
	encOpts = append(encOpts, pairs.WithLogger(logger))

	if padErr != nil {
		padID = 0
	}

	return &Trainer{
		backbone: enc,
		tok:      tok,
		enc:      pairs.NewEncoder(tok, cfg.MaxLength, encOpts...),
		pooler:   pooler,
		loss:     loss.New(cfg.Loss),
		collator: batch.Collator{PadID: padID},
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Step runs one training step over a batch of records and returns the
// composite loss.
func (t *Trainer) Step(ctx context.Context, records []dataset.Record) (float64, error) {
	b, err := t.collate(records, true)
	if err != nil {
		return 0, err
	}

	emb, err := t.embed(ctx, b)
	if err != nil {
		return 0, err
	}

	return t.loss.Compute(b.Labels, emb, b.SimilarityMask)
}

// FitOptions configures a training run.
type FitOptions struct {
	// Optimizer applies updates per step. Required.
	Optimizer Optimizer

	// Epochs is the number of passes over the training records. Defaults
	// to 1.
	Epochs int

	// BatchSize is the number of records per step. Defaults to 32.
	BatchSize int

	// EvalEvery triggers evaluation every N steps. Zero evaluates once per
	// epoch. Evaluation is skipped entirely without validation records.
	EvalEvery int

	// SaveDir, when set, receives the run config whenever evaluation
	// improves on the best Spearman seen so far.
	SaveDir string

	// RunConfig is persisted to SaveDir on improvement.
	RunConfig RunConfig
}

// Fit drives epochs of training steps, with periodic evaluation against the
// validation records.
func (t *Trainer) Fit(ctx context.Context, trainRecs, validRecs []dataset.Record, opts FitOptions) error {
	if opts.Optimizer == nil {
		return ErrNoOptimizer
	}
	if len(trainRecs) == 0 {
		return ErrNoRecords
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}

	best := math.Inf(-1)
	step := 0

	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		for _, chunk := range dataset.Chunk(trainRecs, opts.BatchSize) {
			if err := ctx.Err(); err != nil {
				return err
			}

			lossVal, err := t.Step(ctx, chunk)
			if err != nil {
				return fmt.Errorf("step %d: %w", step, err)
			}
			if err := opts.Optimizer.Step(ctx, lossVal); err != nil {
				return fmt.Errorf("optimizer step %d: %w", step, err)
			}
			step++

			t.logger.Debug("training step",
				zap.Int("epoch", epoch),
				zap.Int("step", step),
				zap.Float64("loss", lossVal),
			)

			if opts.EvalEvery > 0 && step%opts.EvalEvery == 0 {
				if err := t.evalAndSave(ctx, validRecs, opts, epoch, step, &best); err != nil {
					return err
				}
			}
		}

		if opts.EvalEvery == 0 {
			if err := t.evalAndSave(ctx, validRecs, opts, epoch, step, &best); err != nil {
				return err
			}
		}
	}

	return nil
}

func (t *Trainer) evalAndSave(ctx context.Context, validRecs []dataset.Record, opts FitOptions, epoch, step int, best *float64) error {
	if len(validRecs) == 0 {
		return nil
	}

	result, err := t.Evaluate(ctx, validRecs, EvalOptions{BatchSize: opts.BatchSize})
	if err != nil {
		return fmt.Errorf("evaluating at step %d: %w", step, err)
	}

	t.logger.Info("evaluation",
		zap.Int("epoch", epoch),
		zap.Int("step", step),
		zap.Float64("spearman", result.Spearman),
		zap.Float64("accuracy", result.Accuracy),
		zap.Float64("threshold", result.Threshold),
	)

	if result.Spearman > *best {
		*best = result.Spearman
		if opts.SaveDir != "" {
			if err := opts.RunConfig.Save(opts.SaveDir); err != nil {
				return err
			}
			t.logger.Info("saved run config",
				zap.String("dir", opts.SaveDir),
				zap.Float64("best_spearman", *best),
			)
		}
	}

	return nil
}

// EvalResult holds evaluation scores over a record set.
type EvalResult struct {
	// Spearman is the rank correlation of predicted similarities against
	// gold labels.
	Spearman float64

	// Threshold is the decision threshold used for Accuracy: the supplied
	// one, or the optimum found by search.
	Threshold float64

	// Accuracy is the binary accuracy at Threshold.
	Accuracy float64
}

// EvalOptions configures evaluation.
type EvalOptions struct {
	// BatchSize is the number of records per forward pass. Defaults to 32.
	BatchSize int

	// Threshold, when set, is used as-is instead of searching for the
	// accuracy-optimal one.
	Threshold *float64
}

// Evaluate scores the records: cosine similarity of each pair's normalized
// embeddings against its gold label.
func (t *Trainer) Evaluate(ctx context.Context, records []dataset.Record, opts EvalOptions) (EvalResult, error) {
	if len(records) == 0 {
		return EvalResult{}, ErrNoRecords
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}

	var golds, scores []float64

	for _, chunk := range dataset.Chunk(records, opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			return EvalResult{}, err
		}

		b, err := t.collate(chunk, false)
		if err != nil {
			return EvalResult{}, err
		}

		emb, err := t.embed(ctx, b)
		if err != nil {
			return EvalResult{}, err
		}

		rows, _ := emb.Dims()
		for i := 0; i < rows; i += 2 {
			golds = append(golds, b.Labels[i])
			scores = append(scores, cosineSimilarity(emb.RawRowView(i), emb.RawRowView(i+1)))
		}
	}

	result := EvalResult{
		Spearman: metrics.SpearmanCorrelation(scores, golds),
	}
	if opts.Threshold != nil {
		result.Threshold = *opts.Threshold
		result.Accuracy = metrics.Accuracy(golds, scores, *opts.Threshold)
	} else {
		result.Threshold, result.Accuracy = metrics.OptimalThreshold(golds, scores)
	}

	return result, nil
}

// Encode embeds standalone texts: tokenize, forward, pool, L2-normalize.
func (t *Trainer) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrNoRecords
	}

	ids := make([][]int, len(texts))
	width := 0
	for i, text := range texts {
		row := t.tok.Encode(text)
		if t.cfg.MaxLength > 0 && len(row) > t.cfg.MaxLength {
			row = row[:t.cfg.MaxLength]
		}
		ids[i] = row
		if len(row) > width {
			width = len(row)
		}
	}

	in := backbone.Input{
		InputIDs:      make([][]int, len(ids)),
		AttentionMask: make([][]int, len(ids)),
	}
	for i, row := range ids {
		padded := make([]int, width)
		mask := make([]int, width)
		n := copy(padded, row)
		for j := n; j < width; j++ {
			padded[j] = t.collator.PadID
		}
		for j := 0; j < n; j++ {
			mask[j] = 1
		}
		in.InputIDs[i] = padded
		in.AttentionMask[i] = mask
	}

	out, err := t.backbone.Forward(ctx, in)
	if err != nil {
		return nil, err
	}

	emb, err := t.pooler.Pool(out.HiddenStates, in.InputIDs)
	if err != nil {
		return nil, err
	}

	rows, dim := emb.Dims()
	result := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		result[i] = normalize(emb.RawRowView(i), dim)
	}
	return result, nil
}

// collate tokenizes the records and builds a padded batch. simMask is only
// needed for training.
func (t *Trainer) collate(records []dataset.Record, simMask bool) (*batch.Batch, error) {
	feats := make([]pairs.Tokenized, 0, len(records))
	for _, rec := range records {
		feat, err := t.enc.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding record: %w", err)
		}
		feats = append(feats, feat)
	}

	c := t.collator
	c.ComputeSimilarityMask = simMask
	return c.Collate(feats)
}

// embed runs the forward pass and pools hidden states into row embeddings.
func (t *Trainer) embed(ctx context.Context, b *batch.Batch) (*mat.Dense, error) {
	out, err := t.backbone.Forward(ctx, backbone.Input{
		InputIDs:      b.InputIDs,
		AttentionMask: b.AttentionMask,
		TokenTypeIDs:  b.TokenTypeIDs,
	})
	if err != nil {
		return nil, err
	}

	return t.pooler.Pool(out.HiddenStates, b.InputIDs)
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func normalize(v []float64, dim int) []float64 {
	out := make([]float64, dim)
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
