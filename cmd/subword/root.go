package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wbrown/subword_bpe/config"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "subword",
		Short:         "Train and apply BPE subword merges",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			activeCfg = loaded
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newIdentifyCmd())
	cmd.AddCommand(newReplCmd())

	return cmd
}

func requireConfig() (config.Config, error) {
	if activeCfg.Train.VocabSize == 0 {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}
