// Package evalcmder provides the eval command for scoring pair records
// against the current encoder.
package evalcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/backbone/httpenc"
	"github.com/papercomputeco/angler/pkg/cliui"
	"github.com/papercomputeco/angler/pkg/config"
	"github.com/papercomputeco/angler/pkg/dataset"
	"github.com/papercomputeco/angler/pkg/logger"
	"github.com/papercomputeco/angler/pkg/pooling"
	tokenizerutils "github.com/papercomputeco/angler/pkg/tokenizer/utils"
	"github.com/papercomputeco/angler/pkg/train"
)

type evalCommander struct {
	dataFile string

	cfg *config.Config

	modelTarget string
	modelName   string
	maxLength   int
	pooling     string
	batchSize   int
	threshold   float64

	debug  bool
	logger *zap.Logger
}

const evalLongDesc string = `Score pair records against the current encoder.

Encodes both texts of each record, takes the cosine similarity of the
normalized embeddings, and reports the Spearman rank correlation against
the gold labels plus binary accuracy. Without --threshold the decision
threshold is searched for the accuracy optimum over the scored records.

Examples:
  angler eval valid.jsonl
  angler eval valid.jsonl --threshold 0.8
  angler eval valid.jsonl --pooling avg --batch-size 64`

const evalShortDesc string = "Evaluate sentence embeddings on pair records"

func NewEvalCmd() *cobra.Command {
	cmder := &evalCommander{}

	cmd := &cobra.Command{
		Use:   "eval <pairs.jsonl>",
		Short: evalShortDesc,
		Long:  evalLongDesc,
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
				cmder.batchSize = cfg.Eval.BatchSize
			}
			if !cmd.Flags().Changed("threshold") {
				cmder.threshold = cfg.Eval.Threshold
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.dataFile = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.modelTarget, "model-target", defaults.Model.Target, "Encoder runtime URL")
	cmd.Flags().StringVarP(&cmder.modelName, "model", "m", defaults.Model.Name, "Checkpoint the runtime should load")
	cmd.Flags().IntVar(&cmder.maxLength, "max-length", defaults.Train.MaxLength, "Maximum tokens per text")
	cmd.Flags().StringVar(&cmder.pooling, "pooling", defaults.Train.PoolingStrategy, "Pooling strategy (cls, cls_avg, last, avg, max)")
	cmd.Flags().IntVarP(&cmder.batchSize, "batch-size", "b", defaults.Eval.BatchSize, "Records per forward pass")
	cmd.Flags().Float64VarP(&cmder.threshold, "threshold", "t", defaults.Eval.Threshold, "Decision threshold for accuracy (below -1 searches for the optimum)")

	return cmd
}

func (c *evalCommander) run() error {
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
		PromptTemplate:  c.cfg.Train.PromptTemplate,
	}, c.logger)
	if err != nil {
		return err
	}

	records, err := dataset.ReadFile(c.dataFile)
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}

	c.logger.Info("evaluating",
		zap.String("model", c.modelName),
		zap.Int("records", len(records)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := train.EvalOptions{BatchSize: c.batchSize}
	// Thresholds live in [-1, 1]; anything below marks "search for it".
	if c.threshold >= -1 {
		opts.Threshold = &c.threshold
	}

	res, err := trainer.Evaluate(ctx, records, opts)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", cliui.HeaderStyle.Render("Evaluation"))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("spearman"), cliui.MetricStyle.Render(fmt.Sprintf("%.4f", res.Spearman)))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("accuracy"), cliui.MetricStyle.Render(fmt.Sprintf("%.4f", res.Accuracy)))
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("threshold"), cliui.ValueStyle.Render(fmt.Sprintf("%.4f", res.Threshold)))

	return nil
}
