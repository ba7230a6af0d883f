package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/subword_bpe"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagBinder(t *testing.T, args ...string) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())
	require.NoError(t, fs.Parse(args))
	return &fakeBinder{fs: fs}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "line", cfg.Train.Boundary)
	assert.Equal(t, "latin1", cfg.Train.Encoding)
	assert.Equal(t, "preprocess.output", cfg.Train.Output)
	assert.Equal(t, 20, cfg.Train.TopMerges)
	assert.Equal(t, 50, cfg.Train.TopTokens)
	assert.Equal(t, 65536, cfg.Apply.CacheSize)
	assert.Equal(t, "latin1", cfg.Apply.Encoding)
	assert.Equal(t, "languageIdentification.output", cfg.LangID.Output)
	assert.NoError(t, cfg.Validate())
}

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())
	for _, name := range flagKeys {
		assert.NotNil(t, fs.Lookup(name), name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t),
		Defaults: DefaultConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FlagOverride(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Cmd: newFlagBinder(t,
			"--train-vocab-size=500",
			"--train-boundary=sentence",
			"--train-time-limit=90s",
			"--apply-merges=https://example.com/merges.txt"),
		Defaults: DefaultConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Train.VocabSize)
	assert.Equal(t, "sentence", cfg.Train.Boundary)
	assert.Equal(t, 90*time.Second, cfg.Train.TimeLimit)
	assert.Equal(t, "https://example.com/merges.txt", cfg.Apply.Merges)
	assert.Equal(t, "latin1", cfg.Train.Encoding)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SUBWORD_TRAIN_VOCAB_SIZE", "321")
	t.Setenv("SUBWORD_APPLY_CACHE_SIZE", "0")

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t),
		Defaults: DefaultConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, 321, cfg.Train.VocabSize)
	assert.Equal(t, 0, cfg.Apply.CacheSize)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "subword.yaml")
	content := `
train:
  vocab_size: 250
  encoding: utf8
  merges_format: json
langid:
  output: langs.out
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o644))

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, "--train-encoding=latin1"),
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Train.VocabSize)
	assert.Equal(t, "json", cfg.Train.MergesFormat)
	assert.Equal(t, "langs.out", cfg.LangID.Output)
	// Flags set on the command line win over the file.
	assert.Equal(t, "latin1", cfg.Train.Encoding)
}

func TestLoad_ConfigFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subword.toml"),
		[]byte("[train]\ntop_tokens = 10\n"), 0o644))
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Train.TopTokens)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/subword.yaml",
		Defaults:   DefaultConfig(),
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"vocab size", func(c *Config) { c.Train.VocabSize = 0 },
			"train.vocab_size"},
		{"boundary", func(c *Config) { c.Train.Boundary = "paragraph" },
			"boundary"},
		{"encoding", func(c *Config) { c.Train.Encoding = "ebcdic" },
			"encoding"},
		{"merges format", func(c *Config) { c.Train.MergesFormat = "xml" },
			"merges format"},
		{"top tokens", func(c *Config) { c.Train.TopTokens = -1 },
			"train.top_tokens"},
		{"apply encoding", func(c *Config) { c.Apply.Encoding = "ebcdic" },
			"encoding"},
		{"time limit", func(c *Config) { c.Train.TimeLimit = -time.Second },
			"train.time_limit"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(&cfg)
			err := cfg.Validate()
			var inputErr *subword_bpe.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, test.field, inputErr.Field)
		})
	}

	// The first negative field in declaration order is reported, every time.
	for i := 0; i < 20; i++ {
		cfg := DefaultConfig()
		cfg.Train.TopMerges = -1
		cfg.Train.LogEvery = -1
		cfg.Apply.CacheSize = -1
		var inputErr *subword_bpe.InputError
		require.True(t, errors.As(cfg.Validate(), &inputErr))
		assert.Equal(t, "train.top_merges", inputErr.Field)
	}

	cfg := DefaultConfig()
	cfg.Train.VocabSize = -3
	assert.True(t, errors.Is(cfg.Validate(), subword_bpe.ErrInvalidVocabSize))
}
