// Package encodecmder provides the encode command for embedding sentences
// into the vector store.
package encodecmder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/backbone/httpenc"
	"github.com/papercomputeco/angler/pkg/cliui"
	"github.com/papercomputeco/angler/pkg/config"
	"github.com/papercomputeco/angler/pkg/logger"
	"github.com/papercomputeco/angler/pkg/pooling"
	tokenizerutils "github.com/papercomputeco/angler/pkg/tokenizer/utils"
	"github.com/papercomputeco/angler/pkg/train"
	"github.com/papercomputeco/angler/pkg/utils"
	"github.com/papercomputeco/angler/pkg/vector"
	vectorutils "github.com/papercomputeco/angler/pkg/vector/utils"
)

type encodeCommander struct {
	inputFile string

	cfg *config.Config

	modelTarget string
	modelName   string
	maxLength   int
	pooling     string
	batchSize   int
	dbPath      string
	dimensions  uint
	query       string
	topK        int

	debug  bool
	logger *zap.Logger
}

const encodeLongDesc string = `Embed sentences and store them in the vector store.

Reads one sentence per line from the input file, encodes each through the
configured encoder runtime, L2-normalizes the embeddings, and stores them
in the vector store. With --query, also encodes the query text and prints
the most similar stored sentences.

Examples:
  angler encode corpus.txt
  angler encode corpus.txt --query "a man is playing guitar"
  angler encode corpus.txt --db-path ./sentences.db --dimensions 384`

const encodeShortDesc string = "Embed sentences into the vector store"

func NewEncodeCmd() *cobra.Command {
	cmder := &encodeCommander{}

	cmd := &cobra.Command{
		Use:   "encode <sentences.txt>",
		Short: encodeShortDesc,
		Long:  encodeLongDesc,
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
			if !cmd.Flags().Changed("db-path") {
				cmder.dbPath = cfg.VectorStore.DBPath
			}
			if !cmd.Flags().Changed("dimensions") {
				cmder.dimensions = cfg.VectorStore.Dimensions
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.inputFile = args[0]

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
	cmd.Flags().IntVar(&cmder.maxLength, "max-length", defaults.Train.MaxLength, "Maximum tokens per sentence")
	cmd.Flags().StringVar(&cmder.pooling, "pooling", defaults.Train.PoolingStrategy, "Pooling strategy (cls, cls_avg, last, avg, max)")
	cmd.Flags().IntVarP(&cmder.batchSize, "batch-size", "b", defaults.Eval.BatchSize, "Sentences per forward pass")
	cmd.Flags().StringVar(&cmder.dbPath, "db-path", defaults.VectorStore.DBPath, "Vector store database path")
	cmd.Flags().UintVar(&cmder.dimensions, "dimensions", defaults.VectorStore.Dimensions, "Embedding dimensions")
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Query the store after encoding")
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Results to return for --query")

	return cmd
}

func (c *encodeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	sentences, err := readLines(c.inputFile)
	if err != nil {
		return err
	}
	if len(sentences) == 0 {
		return fmt.Errorf("no sentences in %s", c.inputFile)
	}

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

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: c.cfg.VectorStore.Provider,
		DBPath:       c.dbPath,
		Dimensions:   c.dimensions,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer driver.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.logger.Info("encoding sentences",
		zap.String("model", c.modelName),
		zap.Int("sentences", len(sentences)),
		zap.String("db_path", c.dbPath),
	)

	batch := c.batchSize
	if batch <= 0 {
		batch = 32
	}

	stored := 0
	for start := 0; start < len(sentences); start += batch {
		end := start + batch
		if end > len(sentences) {
			end = len(sentences)
		}
		chunk := sentences[start:end]

		embs, err := trainer.Encode(ctx, chunk)
		if err != nil {
			return fmt.Errorf("encoding sentences: %w", err)
		}

		docs := make([]vector.Document, len(chunk))
		for i, text := range chunk {
			docs[i] = vector.Document{
				ID:        uuid.NewString(),
				Text:      text,
				Embedding: toFloat32(embs[i]),
			}
		}

		if err := driver.Add(ctx, docs); err != nil {
			return fmt.Errorf("storing embeddings: %w", err)
		}
		stored += len(docs)
	}

	fmt.Printf("\n  %s Stored %s sentences\n", cliui.SuccessMark, cliui.ValueStyle.Render(fmt.Sprintf("%d", stored)))

	if c.query == "" {
		fmt.Println()
		return nil
	}

	embs, err := trainer.Encode(ctx, []string{c.query})
	if err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}

	results, err := driver.Query(ctx, toFloat32(embs[0]), c.topK)
	if err != nil {
		return fmt.Errorf("querying vector store: %w", err)
	}

	fmt.Printf("\n%s\n\n", cliui.HeaderStyle.Render("Nearest sentences"))
	for _, res := range results {
		fmt.Printf("  %s  %s\n",
			cliui.MetricStyle.Render(fmt.Sprintf("%.4f", res.Score)),
			utils.Truncate(res.Text, 80),
		)
	}
	fmt.Println()

	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
