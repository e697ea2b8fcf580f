package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/example/go-ipatok/internal/server"
	"github.com/example/go-ipatok/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ipatok HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			idx, err := loadIndex(cfg)
			if err != nil {
				return err
			}

			logger := slog.Default()
			seg := tokenizer.New(idx, tokenizer.WithLogger(logger))
			srv := server.New(cfg, seg).WithLogger(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	return cmd
}
