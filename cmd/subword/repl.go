package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wbrown/subword_bpe"
)

// A REPL for trying out learned merges.

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively tokenize lines read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			merger, err := loadMerger(cfg)
			if err != nil {
				return err
			}
			return runRepl(merger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runRepl(merger *subword_bpe.Merger, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, ">>> ")
		input, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		input = strings.TrimRight(input, "\r\n")
		if input != "" {
			subwords := merger.Apply(subword_bpe.SplitLine(input))
			fmt.Fprintf(out, "%v\n", subwords)
			for _, subword := range subwords {
				fmt.Fprintf(out, "|%s", subword)
			}
			fmt.Fprintf(out, "\n")
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
	}
}
