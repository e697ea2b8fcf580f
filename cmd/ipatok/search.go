package main

import (
	"encoding/csv"
	"fmt"

	"github.com/example/go-ipatok/internal/stats"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var noLanguage, noWord, noTranscription bool

	cmd := &cobra.Command{
		Use:   "search <wordlist> <substring>",
		Short: `Print corpus rows whose transcription contains substring (\uXXXX escapes allowed)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := stats.ReadFile(args[0])
			if err != nil {
				return err
			}

			cw := csv.NewWriter(cmd.OutOrStdout())
			for _, rec := range stats.Search(records, stats.DecodeEscapes(args[1])) {
				var row []string
				if !noLanguage {
					row = append(row, rec.Language)
				}
				if !noWord {
					row = append(row, rec.Word)
				}
				if !noTranscription {
					row = append(row, rec.Transcription)
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
			}

			cw.Flush()
			return cw.Error()
		},
	}

	cmd.Flags().BoolVar(&noLanguage, "no-language", false, "Hide the language column")
	cmd.Flags().BoolVar(&noWord, "no-word", false, "Hide the word column")
	cmd.Flags().BoolVar(&noTranscription, "no-transcription", false, "Hide the transcription column")

	return cmd
}
