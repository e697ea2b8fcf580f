package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/go-ipatok/internal/bench"
	"github.com/example/go-ipatok/internal/text"
	"github.com/example/go-ipatok/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		input         string
		language      string
		runs          int
		repeat        int
		format        string
		minThroughput float64
		cpuProfile    string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenization latency and throughput",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			normalized, err := text.Normalize(input)
			if err != nil {
				return fmt.Errorf("--text is required for bench: %w", err)
			}
			if runs < 1 {
				return errors.New("--runs must be at least 1")
			}
			if repeat < 1 {
				return errors.New("--repeat must be at least 1")
			}
			if format != "table" && format != "json" {
				return errors.New("--format must be 'table' or 'json'")
			}
			if !cmd.Flags().Changed("language") {
				language = cfg.Tokenize.Language
			}

			idx, err := loadIndex(cfg)
			if err != nil {
				return err
			}
			seg := tokenizer.New(idx)

			if cpuProfile != "" {
				stop, profErr := bench.StartCPUProfile(cpuProfile)
				if profErr != nil {
					return profErr
				}
				defer func() {
					if stopErr := stop(); stopErr != nil && err == nil {
						err = stopErr
					}
				}()
			}

			results := bench.Measure(runs, tokenizeWorkload(seg, normalized, language, repeat))
			stats := bench.ComputeStats(bench.Durations(results))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				bench.FormatJSON(results, stats, out)
			default:
				bench.FormatTable(results, stats, out)
			}

			var totalRunes int
			for _, r := range results {
				totalRunes += r.Runes
			}
			throughput := bench.CalcThroughput(totalRunes, sumDurations(results))

			if err := bench.CheckThroughputFloor(throughput, minThroughput); err != nil {
				return fmt.Errorf("bench: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Transcription to tokenize in each run (required)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language id (overrides config)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of timed runs")
	cmd.Flags().IntVar(&repeat, "repeat", 1000, "Tokenize calls per run")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean runes/s falls below this value (0 = disabled)")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

func tokenizeWorkload(seg *tokenizer.Segmenter, input, language string, repeat int) bench.Workload {
	n := text.RuneLen(input)
	return func() (int, int) {
		tokens := 0
		for range repeat {
			tokens += len(seg.Tokenize(input, language))
		}
		return n * repeat, tokens
	}
}

func sumDurations(results []bench.RunResult) (total time.Duration) {
	for _, r := range results {
		total += r.Duration
	}
	return total
}
