// Package anglercmder provides the root angler command.
package anglercmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/angler/cmd/angler/config"
	encodecmder "github.com/papercomputeco/angler/cmd/angler/encode"
	evalcmder "github.com/papercomputeco/angler/cmd/angler/eval"
	traincmder "github.com/papercomputeco/angler/cmd/angler/train"
	versioncmder "github.com/papercomputeco/angler/cmd/version"
)

const anglerLongDesc string = `Angler fine-tunes and evaluates sentence embeddings with an
angle-optimized similarity objective.

Common workflows:
  angler train data.jsonl           Fine-tune against pair records
  angler eval data.jsonl            Score a model on pair records
  angler encode corpus.txt          Embed a corpus into the vector store
  angler config list                Show the active configuration`

const anglerShortDesc string = "Angler - angle-optimized sentence embeddings"

func NewAnglerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "angler",
		Short: anglerShortDesc,
		Long:  anglerLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .angler/ config directory")

	// Add subcommands
	cmd.AddCommand(traincmder.NewTrainCmd())
	cmd.AddCommand(evalcmder.NewEvalCmd())
	cmd.AddCommand(encodecmder.NewEncodeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
