package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wbrown/subword_bpe"
	"github.com/wbrown/subword_bpe/config"
	"github.com/wbrown/subword_bpe/resources"
)

const coverageFraction = 0.25

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train [corpus]",
		Short: "Learn merge rules from a corpus file or directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Train.Corpus = args[0]
			}
			if cfg.Train.Corpus == "" {
				return &subword_bpe.InputError{
					Field:  "corpus",
					Reason: "no corpus given",
				}
			}
			return runTrain(cmd.Context(), cfg)
		},
	}
}

func runTrain(ctx context.Context, cfg config.Config) error {
	enc, _ := resources.ParseEncoding(cfg.Train.Encoding)
	boundary, _ := subword_bpe.ParseBoundary(cfg.Train.Boundary)
	format, _ := resources.ParseMergesFormat(cfg.Train.MergesFormat)

	texts, err := resources.ReadCorpus(cfg.Train.Corpus, enc)
	if err != nil {
		return err
	}
	splitter := subword_bpe.NewSplitter()
	splitter.Boundary = boundary
	tokens := make([]string, 0)
	for _, text := range texts {
		split, splitErr := splitter.Split(text.Text)
		if splitErr != nil {
			return splitErr
		}
		tokens = append(tokens, split...)
	}
	table := subword_bpe.EncodeWords(tokens)
	log.Printf("Split %s tokens, %s distinct, alphabet of %s",
		humanize.Comma(int64(len(tokens))),
		humanize.Comma(int64(table.Len())),
		humanize.Comma(int64(len(table.Alphabet()))))

	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Train.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Train.TimeLimit)
		defer cancel()
	}
	trainer := subword_bpe.NewTrainer(cfg.Train.VocabSize)
	trainer.Logger = log.Default()
	trainer.LogEvery = cfg.Train.LogEvery
	result, err := trainer.TrainContext(ctx, table)
	if errors.Is(err, context.DeadlineExceeded) {
		log.Printf("Time limit of %s reached, keeping %s merges",
			cfg.Train.TimeLimit, humanize.Comma(int64(len(result.Merges))))
	} else if err != nil {
		return err
	}

	merger, err := subword_bpe.NewMerger(result.Merges, cfg.Apply.CacheSize)
	if err != nil {
		return err
	}
	begin := time.Now()
	subwords := merger.Apply(tokens)
	log.Printf("Applied %s merges to %s tokens in %0.2fs",
		humanize.Comma(int64(len(result.Merges))),
		humanize.Comma(int64(len(tokens))), time.Since(begin).Seconds())

	report := subword_bpe.CountTokens(subwords)
	log.Printf("%s of %s distinct tokens cover %0.0f%% of all tokens",
		humanize.Comma(int64(report.MinTokensForCoverage(coverageFraction))),
		humanize.Comma(int64(report.Distinct())), coverageFraction*100)

	if err := writeSummary(cfg, enc, subwords, result); err != nil {
		return err
	}
	if err := resources.WriteMerges(cfg.Train.Merges, result.Merges,
		format); err != nil {
		return err
	}
	log.Printf("Wrote %s", cfg.Train.Merges)
	if cfg.Train.SentencePiece != "" {
		model := resources.BuildSentencePieceModel(
			result.Vocabulary.Symbols())
		if err := resources.WriteSentencePieceModel(cfg.Train.SentencePiece,
			model); err != nil {
			return err
		}
		log.Printf("Wrote %s", cfg.Train.SentencePiece)
	}
	return nil
}

func writeSummary(cfg config.Config, enc resources.Encoding,
	subwords []string, result *subword_bpe.TrainResult) error {
	file, err := os.Create(cfg.Train.Output)
	if err != nil {
		return err
	}
	writer := enc.NewWriter(file)
	summary := &subword_bpe.Summary{
		Tokens:    subwords,
		Merges:    result.Merges,
		TopMerges: cfg.Train.TopMerges,
		TopTokens: cfg.Train.TopTokens,
	}
	_, err = summary.WriteTo(writer)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		log.Printf("Wrote %s", cfg.Train.Output)
	}
	return err
}
