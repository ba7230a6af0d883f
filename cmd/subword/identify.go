package main

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wbrown/subword_bpe/config"
	"github.com/wbrown/subword_bpe/langid"
	"github.com/wbrown/subword_bpe/resources"
)

func newIdentifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify <training-dir> <test-file>",
		Short: "Identify the language of each line of a test file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runIdentify(cfg, args[0], args[1])
		},
	}
}

func runIdentify(cfg config.Config, trainingDir string, testPath string) error {
	enc, _ := resources.ParseEncoding(cfg.LangID.Encoding)
	classifier, err := langid.LoadTrainingDir(trainingDir, enc)
	if err != nil {
		return err
	}
	text, err := resources.ReadText(testPath, enc)
	if err != nil {
		return err
	}
	file, err := os.Create(cfg.LangID.Output)
	if err != nil {
		return err
	}
	writer := enc.NewWriter(file)
	err = classifier.IdentifyReader(strings.NewReader(text), writer)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		log.Printf("Wrote %s", cfg.LangID.Output)
	}
	return err
}
