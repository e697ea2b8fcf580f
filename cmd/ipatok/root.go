package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/example/go-ipatok/internal/config"
	"github.com/example/go-ipatok/internal/inventory"
	"github.com/example/go-ipatok/internal/server"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
	cfgLoaded bool
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "ipatok",
		Short:         "Segment IPA transcriptions into phoneme tokens",
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
			activeCfg = loaded
			cfgLoaded = true
			setupLogger(cmd.ErrOrStderr(), loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTokenizeCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newInventoryCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTiesCmd())
	cmd.AddCommand(newBenchCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(w io.Writer, levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if !cfgLoaded {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}

// inventorySource describes where loadIndex reads inventories from.
func inventorySource(cfg config.Config) string {
	if cfg.Paths.InventoryPath == "" {
		return "embedded"
	}
	return cfg.Paths.InventoryPath
}

// loadIndex builds the inventory index selected by cfg. CSV and TSV assets
// get the configured boundary markers.
func loadIndex(cfg config.Config) (*inventory.Index, error) {
	if cfg.Paths.InventoryPath == "" {
		return inventory.LoadEmbedded()
	}
	return inventory.Load(cfg.Paths.InventoryPath, inventory.WithBoundaries(cfg.Tokenize.Boundaries...))
}

// warnUnknownLanguage logs when language will resolve to the fallback.
func warnUnknownLanguage(idx *inventory.Index, language string) {
	if language != "" && !idx.Has(language) {
		slog.Warn("unknown language, using fallback inventory", slog.String("language", language))
	}
}
