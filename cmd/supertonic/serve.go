package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/example/go-supertonic/internal/engine"
	"github.com/example/go-supertonic/internal/server"
	"github.com/example/go-supertonic/internal/tts"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Supertonic HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			rt, err := engine.Open(cfg.Runtime)
			if err != nil {
				return err
			}
			defer rt.Close()

			eng, err := tts.Load(rt, cfg.Paths.ModelDir)
			if err != nil {
				return err
			}
			defer eng.Close()

			voices, err := tts.NewVoiceManager(cfg.Paths.VoiceDir)
			if err != nil {
				return err
			}

			srv := server.New(cfg, eng, voices)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}
}
