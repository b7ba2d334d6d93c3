package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/angler/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Version).To(Equal(defaults.Version))
			Expect(cfg.Model.Target).To(Equal(defaults.Model.Target))
			Expect(cfg.Model.Name).To(Equal(defaults.Model.Name))
			Expect(cfg.Tokenizer.Provider).To(Equal(defaults.Tokenizer.Provider))
			Expect(cfg.Tokenizer.Encoding).To(Equal(defaults.Tokenizer.Encoding))
			Expect(cfg.Train.MaxLength).To(Equal(defaults.Train.MaxLength))
			Expect(cfg.Train.PoolingStrategy).To(Equal(defaults.Train.PoolingStrategy))
			Expect(cfg.Train.W1).To(Equal(defaults.Train.W1))
			Expect(cfg.Train.CosineTau).To(Equal(defaults.Train.CosineTau))
			Expect(cfg.Eval.Threshold).To(Equal(defaults.Eval.Threshold))
			Expect(cfg.VectorStore.Provider).To(Equal(defaults.VectorStore.Provider))
			Expect(cfg.VectorStore.Dimensions).To(Equal(defaults.VectorStore.Dimensions))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[model]
target = "http://encoder:9000"
name = "my-encoder"
causal = true

[train]
max_length = 128
pooling_strategy = "avg"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.Target).To(Equal("http://encoder:9000"))
			Expect(cfg.Model.Name).To(Equal("my-encoder"))
			Expect(cfg.Model.Causal).To(BeTrue())
			Expect(cfg.Train.MaxLength).To(Equal(128))
			Expect(cfg.Train.PoolingStrategy).To(Equal("avg"))
		})

		It("fills unset fields with defaults", func() {
			data := `version = 0

[train]
w1 = 0.5
w2 = 0.5
w3 = 0.0
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Train.W1).To(Equal(0.5))
			Expect(cfg.Train.W3).To(Equal(0.0))
			Expect(cfg.Train.CosineTau).To(Equal(defaults.Train.CosineTau))
			Expect(cfg.Train.BatchSize).To(Equal(defaults.Train.BatchSize))
			Expect(cfg.Model.Target).To(Equal(defaults.Model.Target))
		})

		It("rejects unsupported config versions", func() {
			data := "version = 99\n"
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})

		It("rejects malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SaveConfig", func() {
		It("round-trips a config through save and load", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Model.Name = "saved-encoder"
			cfg.Train.Epochs = 5
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Model.Name).To(Equal("saved-encoder"))
			Expect(loaded.Train.Epochs).To(Equal(5))
		})

		It("rejects a nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("Get and Set config values", func() {
		It("sets and gets string keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("model.name", "other-encoder")).To(Succeed())

			val, err := c.GetConfigValue("model.name")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("other-encoder"))
		})

		It("sets and gets float keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("train.w2", "0.25")).To(Succeed())

			val, err := c.GetConfigValue("train.w2")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("0.25"))
		})

		It("sets and gets integer keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("train.max_length", "256")).To(Succeed())

			val, err := c.GetConfigValue("train.max_length")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("256"))
		})

		It("rejects unknown keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("nope.nothing", "x")).To(HaveOccurred())
			_, err = c.GetConfigValue("nope.nothing")
			Expect(err).To(HaveOccurred())
		})

		It("rejects malformed numeric values", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("train.w1", "not-a-number")).To(HaveOccurred())
			Expect(c.SetConfigValue("train.epochs", "three")).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("lists every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"model.target",
				"train.pooling_strategy",
				"train.negative_weight",
				"eval.threshold",
				"vector_store.dimensions",
			))

			seen := map[string]int{}
			for _, k := range keys {
				seen[k]++
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
			for k, n := range seen {
				Expect(n).To(Equal(1), "duplicate key %s", k)
			}
		})
	})

	Describe("PresetConfig", func() {
		It("returns a causal preset for llama", func() {
			cfg, err := config.PresetConfig("llama")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.Causal).To(BeTrue())
			Expect(cfg.Tokenizer.PadTokenID).To(Equal(0))
		})

		It("returns an encoder preset for bert", func() {
			cfg, err := config.PresetConfig("bert")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.Causal).To(BeFalse())
			Expect(cfg.Tokenizer.Provider).To(Equal("vocab"))
		})

		It("rejects unknown presets", func() {
			_, err := config.PresetConfig("gopher")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("applies defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("model.target")).To(Equal(defaults.Model.Target))
		Expect(v.GetFloat64("train.cosine_tau")).To(Equal(defaults.Train.CosineTau))
		Expect(v.GetInt("train.batch_size")).To(Equal(defaults.Train.BatchSize))
	})

	It("reads values from config.toml", func() {
		data := `[model]
name = "from-file"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("model.name")).To(Equal("from-file"))
	})

	It("lets environment variables override the file", func() {
		os.Setenv("ANGLER_MODEL_NAME", "from-env")
		defer os.Unsetenv("ANGLER_MODEL_NAME")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("model.name")).To(Equal("from-env"))
	})
})

var _ = Describe("Flag registry", func() {
	fs := config.FlagSet{
		config.FlagModelName: {
			Name:        "model",
			Shorthand:   "m",
			ViperKey:    "model.name",
			Description: "checkpoint to load",
		},
		config.FlagEpochs: {
			Name:        "epochs",
			ViperKey:    "train.epochs",
			Description: "training epochs",
		},
	}

	It("registers flags with defaults from the config", func() {
		cmd := &cobra.Command{Use: "test"}
		var model string
		var epochs int

		config.AddStringFlag(cmd, fs, config.FlagModelName, &model)
		config.AddIntFlag(cmd, fs, config.FlagEpochs, &epochs)

		defaults := config.NewDefaultConfig()
		Expect(cmd.Flags().Lookup("model")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("model").DefValue).To(Equal(defaults.Model.Name))
		Expect(cmd.Flags().Lookup("epochs")).NotTo(BeNil())
	})

	It("binds registered flags into viper precedence", func() {
		cmd := &cobra.Command{Use: "test"}
		var model string
		config.AddStringFlag(cmd, fs, config.FlagModelName, &model)
		Expect(cmd.Flags().Set("model", "from-flag")).To(Succeed())

		v, err := config.InitViper("")
		Expect(err).NotTo(HaveOccurred())
		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagModelName})
		Expect(v.GetString("model.name")).To(Equal("from-flag"))
	})

	It("ignores unknown registry keys", func() {
		cmd := &cobra.Command{Use: "test"}
		var s string
		config.AddStringFlag(cmd, fs, "missing", &s)
		Expect(cmd.Flags().Lookup("missing")).To(BeNil())
	})
})
