package main

import (
	"bufio"
	"io"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/config"
	"github.com/wbrown/subword_bpe/resources"
)

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <input>",
		Short: "Tokenize a file with learned merges, one token per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runApply(cfg, args[0], cmd.OutOrStdout())
		},
	}
}

func loadMerger(cfg config.Config) (*subword_bpe.Merger, error) {
	merges, err := resources.ReadMerges(cfg.Apply.Merges, cfg.Apply.CacheDir)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %s merges from %s",
		humanize.Comma(int64(len(merges))), cfg.Apply.Merges)
	return subword_bpe.NewMerger(merges, cfg.Apply.CacheSize)
}

func runApply(cfg config.Config, input string, out io.Writer) error {
	merger, err := loadMerger(cfg)
	if err != nil {
		return err
	}
	enc, _ := resources.ParseEncoding(cfg.Apply.Encoding)
	text, err := resources.ReadText(input, enc)
	if err != nil {
		return &subword_bpe.InputError{
			Field:  "input",
			Reason: "cannot read `" + input + "`",
			Err:    err,
		}
	}
	boundary, _ := subword_bpe.ParseBoundary(cfg.Train.Boundary)
	splitter := subword_bpe.NewSplitter()
	splitter.Boundary = boundary
	tokens, err := splitter.Split(text)
	if err != nil {
		return err
	}
	writer := bufio.NewWriter(out)
	for _, token := range merger.Apply(tokens) {
		if _, err := writer.WriteString(token + "\n"); err != nil {
			return err
		}
	}
	log.Printf("Merge cache: %s hits, %s misses",
		humanize.Comma(int64(merger.CacheHits)),
		humanize.Comma(int64(merger.CacheMisses)))
	return writer.Flush()
}
