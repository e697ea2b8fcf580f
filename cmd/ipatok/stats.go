package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/example/go-ipatok/internal/stats"
	"github.com/example/go-ipatok/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		maxSymbols   int
		maxLanguages int
		minScore     float64
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "stats <corpus.tsv>",
		Short: "Tokenize a language/word/transcription corpus and report unknown symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			idx, err := loadIndex(cfg)
			if err != nil {
				return err
			}

			records, err := stats.ReadFile(args[0])
			if err != nil {
				return err
			}

			report, err := stats.Run(records, tokenizer.New(idx), stats.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				err = enc.Encode(statsReport{
					Records: len(records),
					Passed:  report.Passed,
					Failed:  report.Failed,
					Score:   report.Score(),
					Errors:  report.Counter.MostCommon(maxSymbols, maxLanguages),
				})
			} else {
				_, err = fmt.Fprintf(out, "%sScore: %v\n", report.Counter.Summarize(maxSymbols, maxLanguages), report.Score())
			}
			if err != nil {
				return err
			}

			if minScore > 0 && report.Score() < minScore {
				return fmt.Errorf("score %.4f below minimum %.4f", report.Score(), minScore)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSymbols, "max-symbols", 0, "Most common symbols to report (0 = all)")
	cmd.Flags().IntVar(&maxLanguages, "max-languages", 0, "Languages to report per symbol (0 = all)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Exit non-zero if the score is below this value (0 = disabled)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")

	return cmd
}

type statsReport struct {
	Records int                 `json:"records"`
	Passed  int                 `json:"passed"`
	Failed  int                 `json:"failed"`
	Score   float64             `json:"score"`
	Errors  []stats.SymbolCount `json:"errors"`
}
