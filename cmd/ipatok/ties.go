package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/example/go-ipatok/internal/stats"
	"github.com/spf13/cobra"
)

func newTiesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ties <wordlist> [context]",
		Short: "Print the most common tied symbol sequences in a corpus",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			context := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("context: %w", err)
				}
				context = n
			}

			records, err := stats.ReadFile(args[0])
			if err != nil {
				return err
			}

			counts, err := stats.Ties(records, context)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if counts == nil {
					counts = []stats.TieCount{}
				}
				return enc.Encode(counts)
			}

			for _, tc := range counts {
				if _, err := fmt.Fprintf(out, "%s\t%d\n", tc.Sequence, tc.Count); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")

	return cmd
}
