package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/resources"
)

type Config struct {
	Train  TrainConfig  `mapstructure:"train"`
	Apply  ApplyConfig  `mapstructure:"apply"`
	LangID LangIDConfig `mapstructure:"langid"`
}

type TrainConfig struct {
	Corpus        string        `mapstructure:"corpus"`
	VocabSize     int           `mapstructure:"vocab_size"`
	Boundary      string        `mapstructure:"boundary"`
	Encoding      string        `mapstructure:"encoding"`
	Output        string        `mapstructure:"output"`
	Merges        string        `mapstructure:"merges"`
	MergesFormat  string        `mapstructure:"merges_format"`
	SentencePiece string        `mapstructure:"sentencepiece"`
	TopMerges     int           `mapstructure:"top_merges"`
	TopTokens     int           `mapstructure:"top_tokens"`
	TimeLimit     time.Duration `mapstructure:"time_limit"`
	LogEvery      int           `mapstructure:"log_every"`
}

type ApplyConfig struct {
	Merges    string `mapstructure:"merges"`
	Encoding  string `mapstructure:"encoding"`
	CacheSize int    `mapstructure:"cache_size"`
	CacheDir  string `mapstructure:"cache_dir"`
}

type LangIDConfig struct {
	Output   string `mapstructure:"output"`
	Encoding string `mapstructure:"encoding"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Train: TrainConfig{
			Corpus:        "",
			VocabSize:     1000,
			Boundary:      "line",
			Encoding:      "latin1",
			Output:        "preprocess.output",
			Merges:        "merges.txt",
			MergesFormat:  "txt",
			SentencePiece: "",
			TopMerges:     subword_bpe.DEFAULT_TOP_MERGES,
			TopTokens:     subword_bpe.DEFAULT_TOP_TOKENS,
			TimeLimit:     0,
			LogEvery:      subword_bpe.DEFAULT_LOG_EVERY,
		},
		Apply: ApplyConfig{
			Merges:    "merges.txt",
			Encoding:  "latin1",
			CacheSize: subword_bpe.MERGE_LRU_SZ,
			CacheDir:  "",
		},
		LangID: LangIDConfig{
			Output:   "languageIdentification.output",
			Encoding: "latin1",
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("train-corpus", defaults.Train.Corpus, "Corpus file or directory")
	fs.Int("train-vocab-size", defaults.Train.VocabSize, "Target vocabulary size")
	fs.String("train-boundary", defaults.Train.Boundary, "Segment boundary: line or sentence")
	fs.String("train-encoding", defaults.Train.Encoding, "Corpus encoding: latin1 or utf8")
	fs.String("train-output", defaults.Train.Output, "Report output path")
	fs.String("train-merges", defaults.Train.Merges, "Merges output path")
	fs.String("train-merges-format", defaults.Train.MergesFormat, "Merges file format: txt or json")
	fs.String("train-sentencepiece", defaults.Train.SentencePiece, "Optional sentencepiece model output path")
	fs.Int("train-top-merges", defaults.Train.TopMerges, "Merge rules listed in the report")
	fs.Int("train-top-tokens", defaults.Train.TopTokens, "Most frequent tokens listed in the report")
	fs.Duration("train-time-limit", defaults.Train.TimeLimit, "Stop training after this long, 0 for no limit")
	fs.Int("train-log-every", defaults.Train.LogEvery, "Merges between progress lines, 0 to disable")
	fs.String("apply-merges", defaults.Apply.Merges, "Merges file path or URL")
	fs.String("apply-encoding", defaults.Apply.Encoding, "Input encoding: latin1 or utf8")
	fs.Int("apply-cache-size", defaults.Apply.CacheSize, "Per-token merge cache entries, 0 to disable")
	fs.String("apply-cache-dir", defaults.Apply.CacheDir, "Download directory for remote merges files")
	fs.String("langid-output", defaults.LangID.Output, "Language identification output path")
	fs.String("langid-encoding", defaults.LangID.Encoding, "Training and test file encoding: latin1 or utf8")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("SUBWORD")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("subword")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every command depends on.
func (cfg Config) Validate() error {
	if cfg.Train.VocabSize <= 0 {
		return &subword_bpe.InputError{
			Field:  "train.vocab_size",
			Reason: fmt.Sprintf("got %d", cfg.Train.VocabSize),
			Err:    subword_bpe.ErrInvalidVocabSize,
		}
	}
	if _, err := subword_bpe.ParseBoundary(cfg.Train.Boundary); err != nil {
		return err
	}
	if _, err := resources.ParseEncoding(cfg.Train.Encoding); err != nil {
		return err
	}
	if _, err := resources.ParseEncoding(cfg.Apply.Encoding); err != nil {
		return err
	}
	if _, err := resources.ParseEncoding(cfg.LangID.Encoding); err != nil {
		return err
	}
	if _, err := resources.ParseMergesFormat(cfg.Train.MergesFormat); err != nil {
		return err
	}
	counts := []struct {
		field string
		value int
	}{
		{"train.top_merges", cfg.Train.TopMerges},
		{"train.top_tokens", cfg.Train.TopTokens},
		{"train.log_every", cfg.Train.LogEvery},
		{"apply.cache_size", cfg.Apply.CacheSize},
	}
	for _, count := range counts {
		if count.value < 0 {
			return &subword_bpe.InputError{
				Field:  count.field,
				Reason: fmt.Sprintf("must not be negative, got %d", count.value),
			}
		}
	}
	if cfg.Train.TimeLimit < 0 {
		return &subword_bpe.InputError{
			Field:  "train.time_limit",
			Reason: fmt.Sprintf("must not be negative, got %s", cfg.Train.TimeLimit),
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("train.corpus", c.Train.Corpus)
	v.SetDefault("train.vocab_size", c.Train.VocabSize)
	v.SetDefault("train.boundary", c.Train.Boundary)
	v.SetDefault("train.encoding", c.Train.Encoding)
	v.SetDefault("train.output", c.Train.Output)
	v.SetDefault("train.merges", c.Train.Merges)
	v.SetDefault("train.merges_format", c.Train.MergesFormat)
	v.SetDefault("train.sentencepiece", c.Train.SentencePiece)
	v.SetDefault("train.top_merges", c.Train.TopMerges)
	v.SetDefault("train.top_tokens", c.Train.TopTokens)
	v.SetDefault("train.time_limit", c.Train.TimeLimit)
	v.SetDefault("train.log_every", c.Train.LogEvery)
	v.SetDefault("apply.merges", c.Apply.Merges)
	v.SetDefault("apply.encoding", c.Apply.Encoding)
	v.SetDefault("apply.cache_size", c.Apply.CacheSize)
	v.SetDefault("apply.cache_dir", c.Apply.CacheDir)
	v.SetDefault("langid.output", c.LangID.Output)
	v.SetDefault("langid.encoding", c.LangID.Encoding)
}

// flagKeys maps config keys to the flags RegisterFlags defines for them.
var flagKeys = map[string]string{
	"train.corpus":        "train-corpus",
	"train.vocab_size":    "train-vocab-size",
	"train.boundary":      "train-boundary",
	"train.encoding":      "train-encoding",
	"train.output":        "train-output",
	"train.merges":        "train-merges",
	"train.merges_format": "train-merges-format",
	"train.sentencepiece": "train-sentencepiece",
	"train.top_merges":    "train-top-merges",
	"train.top_tokens":    "train-top-tokens",
	"train.time_limit":    "train-time-limit",
	"train.log_every":     "train-log-every",
	"apply.merges":        "apply-merges",
	"apply.encoding":      "apply-encoding",
	"apply.cache_size":    "apply-cache-size",
	"apply.cache_dir":     "apply-cache-dir",
	"langid.output":       "langid-output",
	"langid.encoding":     "langid-encoding",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
