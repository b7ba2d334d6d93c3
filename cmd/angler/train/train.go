// Package traincmder provides the train command for fine-tuning sentence
// embeddings against pair records.
package traincmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/backbone/httpenc"
	"github.com/papercomputeco/angler/pkg/cliui"
	"github.com/papercomputeco/angler/pkg/config"
	"github.com/papercomputeco/angler/pkg/dataset"
	"github.com/papercomputeco/angler/pkg/logger"
	"github.com/papercomputeco/angler/pkg/loss"
	"github.com/papercomputeco/angler/pkg/pooling"
	tokenizerutils "github.com/papercomputeco/angler/pkg/tokenizer/utils"
	"github.com/papercomputeco/angler/pkg/train"
)

type trainCommander struct {
	trainFile string
	validFile string

	cfg *config.Config

	modelTarget string
	modelName   string
	maxLength   int
	pooling     string
	batchSize   int
	epochs      int
	template    string
	saveDir     string
	w1          float64
	w2          float64
	w3          float64
	negWeight   float64

	debug  bool
	logger *zap.Logger
}

const trainLongDesc string = `Fine-tune sentence embeddings against pair records.

Reads JSONL pair records ({"text1": ..., "text2": ..., "label": ...}) and
drives training steps through the configured encoder runtime: each batch is
tokenized, collated, run forward, pooled, and scored with the composite
angle-optimized objective. The runtime applies the update for each step.

The composite objective combines three weighted terms: a cosine ranking
term (w1), an in-batch negative term (w2), and an angle-difference term
(w3). Setting a weight to 0 disables its term.

Examples:
  angler train pairs.jsonl
  angler train pairs.jsonl --valid valid.jsonl --epochs 3
  angler train pairs.jsonl --w2 0 --w3 0           # cosine objective only
  angler train pairs.jsonl --template "query: {text}"`

const trainShortDesc string = "Fine-tune sentence embeddings"

func NewTrainCmd() *cobra.Command {
	cmder := &trainCommander{}

	cmd := &cobra.Command{
		Use:   "train <pairs.jsonl>",
		Short: trainShortDesc,
		Long:  trainLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg

			// Config file values back any flag the user left untouched.
			if !cmd.Flags().Changed("model-target") {
				cmder.modelTarget = cfg.Model.Target
			}
			if !cmd.Flags().Changed("model") {
				cmder.modelName = cfg.Model.Name
			}
			if !cmd.Flags().Changed("max-length") {
				cmder.maxLength = cfg.Train.MaxLength
			}
			if !cmd.Flags().Changed("pooling") {
				cmder.pooling = cfg.Train.PoolingStrategy
			}
			if !cmd.Flags().Changed("batch-size") {
				cmder.batchSize = cfg.Train.BatchSize
			}
			if !cmd.Flags().Changed("epochs") {
				cmder.epochs = cfg.Train.Epochs
			}
			if !cmd.Flags().Changed("template") {
				cmder.template = cfg.Train.PromptTemplate
			}
			if !cmd.Flags().Changed("save-dir") {
				cmder.saveDir = cfg.Train.SaveDir
			}
			if !cmd.Flags().Changed("w1") {
				cmder.w1 = cfg.Train.W1
			}
			if !cmd.Flags().Changed("w2") {
				cmder.w2 = cfg.Train.W2
			}
			if !cmd.Flags().Changed("w3") {
				cmder.w3 = cfg.Train.W3
			}
			if !cmd.Flags().Changed("negative-weight") {
				cmder.negWeight = cfg.Train.NegativeWeight
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.trainFile = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.validFile, "valid", "", "Validation pair records (JSONL)")
	cmd.Flags().StringVar(&cmder.modelTarget, "model-target", defaults.Model.Target, "Encoder runtime URL")
	cmd.Flags().StringVarP(&cmder.modelName, "model", "m", defaults.Model.Name, "Checkpoint the runtime should load")
	cmd.Flags().IntVar(&cmder.maxLength, "max-length", defaults.Train.MaxLength, "Maximum tokens per text")
	cmd.Flags().StringVar(&cmder.pooling, "pooling", defaults.Train.PoolingStrategy, "Pooling strategy (cls, cls_avg, last, avg, max)")
	cmd.Flags().IntVarP(&cmder.batchSize, "batch-size", "b", defaults.Train.BatchSize, "Records per training step")
	cmd.Flags().IntVarP(&cmder.epochs, "epochs", "e", defaults.Train.Epochs, "Passes over the training records")
	cmd.Flags().StringVar(&cmder.template, "template", defaults.Train.PromptTemplate, "Prompt template wrapping each text ({text} placeholder)")
	cmd.Flags().StringVar(&cmder.saveDir, "save-dir", defaults.Train.SaveDir, "Directory receiving the run config on eval improvement")
	cmd.Flags().Float64Var(&cmder.w1, "w1", defaults.Train.W1, "Cosine ranking term weight")
	cmd.Flags().Float64Var(&cmder.w2, "w2", defaults.Train.W2, "In-batch negative term weight")
	cmd.Flags().Float64Var(&cmder.w3, "w3", defaults.Train.W3, "Angle-difference term weight")
	cmd.Flags().Float64Var(&cmder.negWeight, "negative-weight", defaults.Train.NegativeWeight, "Bonus on purely-negative in-batch pairings")

	return cmd
}

func (c *trainCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	tok, err := tokenizerutils.NewTokenizer(&tokenizerutils.NewTokenizerOpts{
		Provider:   c.cfg.Tokenizer.Provider,
		Encoding:   c.cfg.Tokenizer.Encoding,
		VocabPath:  c.cfg.Tokenizer.VocabPath,
		PadTokenID: c.cfg.Tokenizer.PadTokenID,
	})
	if err != nil {
		return fmt.Errorf("creating tokenizer: %w", err)
	}

	enc, err := httpenc.New(httpenc.Config{
		BaseURL: c.modelTarget,
		Model:   c.modelName,
	})
	if err != nil {
		return fmt.Errorf("creating encoder client: %w", err)
	}
	defer enc.Close()

	strategy, err := pooling.ParseStrategy(c.pooling)
	if err != nil {
		return err
	}

	trainer, err := train.New(enc, tok, train.Config{
		MaxLength:       c.maxLength,
		PoolingStrategy: strategy,
		Causal:          c.cfg.Model.Causal,
		PromptTemplate:  c.template,
		Loss: loss.Config{
			W1:             c.w1,
			W2:             c.w2,
			W3:             c.w3,
			CosineTau:      c.cfg.Train.CosineTau,
			IBNTau:         c.cfg.Train.IBNTau,
			AngleTau:       c.cfg.Train.AngleTau,
			NegativeWeight: c.negWeight,
		},
	}, c.logger)
	if err != nil {
		return err
	}

	trainRecs, err := dataset.ReadFile(c.trainFile)
	if err != nil {
		return fmt.Errorf("reading training records: %w", err)
	}

	var validRecs []dataset.Record
	if c.validFile != "" {
		validRecs, err = dataset.ReadFile(c.validFile)
		if err != nil {
			return fmt.Errorf("reading validation records: %w", err)
		}
	}

	c.logger.Info("starting training",
		zap.String("model", c.modelName),
		zap.Int("train_records", len(trainRecs)),
		zap.Int("valid_records", len(validRecs)),
		zap.Int("epochs", c.epochs),
		zap.Int("batch_size", c.batchSize),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	err = trainer.Fit(ctx, trainRecs, validRecs, train.FitOptions{
		Optimizer: enc,
		Epochs:    c.epochs,
		BatchSize: c.batchSize,
		SaveDir:   c.saveDir,
		RunConfig: train.RunConfig{
			ModelTarget:     c.modelTarget,
			ModelName:       c.modelName,
			MaxLength:       c.maxLength,
			PoolingStrategy: c.pooling,
			Causal:          c.cfg.Model.Causal,
			PromptTemplate:  c.template,
			W1:              c.w1,
			W2:              c.w2,
			W3:              c.w3,
			CosineTau:       c.cfg.Train.CosineTau,
			IBNTau:          c.cfg.Train.IBNTau,
			AngleTau:        c.cfg.Train.AngleTau,
			NegativeWeight:  c.negWeight,
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Training complete %s\n\n",
		cliui.SuccessMark,
		cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(time.Since(started)))),
	)
	return nil
}
