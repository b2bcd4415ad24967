package main

import (
	"fmt"

	"github.com/example/go-supertonic/internal/tts"
	"github.com/spf13/cobra"
)

func newVoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List available voice styles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			voices, err := tts.NewVoiceManager(cfg.Paths.VoiceDir)
			if err != nil {
				return err
			}

			list := voices.List()
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no voice styles found in %s\n", cfg.Paths.VoiceDir)
				return nil
			}

			for _, v := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v.ID, v.Path)
			}

			return nil
		},
	}
}
