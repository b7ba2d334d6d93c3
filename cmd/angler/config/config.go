// Package configcmder provides the config command for managing persistent
// angler configuration stored in the .angler/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent angler configuration.

Configuration is stored as config.toml in the .angler/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  model.target, model.name, model.causal,
  tokenizer.provider, tokenizer.encoding, tokenizer.vocab_path,
  train.max_length, train.pooling_strategy, train.w1, train.w2, train.w3,
  train.cosine_tau, train.ibn_tau, train.angle_tau, train.batch_size,
  train.epochs, train.prompt_template,
  eval.threshold, vector_store.provider, vector_store.db_path

Use subcommands to get, set, or list configuration values:
  angler config set <key> <value>    Set a configuration value
  angler config get <key>            Get a configuration value
  angler config list                 List all configuration values

Examples:
  angler config set model.name bert-base-uncased
  angler config set train.pooling_strategy cls_avg
  angler config get train.max_length
  angler config list`

const configShortDesc string = "Manage persistent angler configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
