package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/go-ipatok/internal/inventory"
	"github.com/spf13/cobra"
)

func newInventoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inventory [language]",
		Short: "List loaded languages or the segments of one language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			idx, err := loadIndex(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return printLanguage(out, idx, args[0], asJSON)
			}
			return printLanguages(out, idx, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")

	return cmd
}

type languageSummary struct {
	ID         string   `json:"id"`
	Aliases    []string `json:"aliases"`
	Segments   int      `json:"segments"`
	Boundaries []string `json:"boundaries"`
}

type catalogSummary struct {
	Languages []languageSummary `json:"languages"`
	Fallback  int               `json:"fallback_segments"`
	Digest    string            `json:"digest"`
}

func printLanguages(w io.Writer, idx *inventory.Index, asJSON bool) error {
	summary := catalogSummary{
		Languages: make([]languageSummary, 0, len(idx.Languages())),
		Fallback:  idx.Fallback().Len(),
		Digest:    idx.Digest(),
	}
	for _, id := range idx.Languages() {
		inv := idx.Lookup(id)
		summary.Languages = append(summary.Languages, languageSummary{
			ID:         id,
			Aliases:    nonNil(idx.Aliases(id)),
			Segments:   inv.Len(),
			Boundaries: nonNil(inv.Boundaries()),
		})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tALIASES\tSEGMENTS\tBOUNDARIES")
	for _, l := range summary.Languages {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", l.ID, dash(l.Aliases), l.Segments, dash(l.Boundaries))
	}
	fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", inventory.DefaultID, "-", summary.Fallback, "-")
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "digest: %s\n", summary.Digest)
	return err
}

type languageDetail struct {
	ID         string   `json:"id"`
	Aliases    []string `json:"aliases"`
	Segments   []string `json:"segments"`
	Boundaries []string `json:"boundaries"`
}

func printLanguage(w io.Writer, idx *inventory.Index, id string, asJSON bool) error {
	var inv *inventory.Inventory
	switch {
	case id == inventory.DefaultID:
		inv = idx.Fallback()
	case idx.Has(id):
		inv = idx.Lookup(id)
	default:
		return fmt.Errorf("unknown language %q", id)
	}

	detail := languageDetail{
		ID:         inv.ID(),
		Aliases:    nonNil(idx.Aliases(inv.ID())),
		Segments:   nonNil(inv.Segments()),
		Boundaries: nonNil(inv.Boundaries()),
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	}

	_, err := fmt.Fprintf(w, "%s\nsegments: %s\nboundaries: %s\n",
		detail.ID, strings.Join(detail.Segments, " "), dash(detail.Boundaries))
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func dash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, " ")
}
