package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-ipatok/internal/config"
	"github.com/example/go-ipatok/internal/text"
	"github.com/example/go-ipatok/internal/tokenizer"
	"github.com/spf13/cobra"
)

type tokenizeOptions struct {
	Language      string
	Separator     string
	Strict        bool
	JSON          bool
	CSV           bool
	Index         int
	LanguageIndex int
	Silent        bool
}

func newTokenizeCmd() *cobra.Command {
	var opts tokenizeOptions

	cmd := &cobra.Command{
		Use:   "tokenize [transcription...]",
		Short: "Tokenize transcriptions from arguments, stdin lines, or CSV rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("language") {
				opts.Language = cfg.Tokenize.Language
			}
			if !flags.Changed("separator") {
				opts.Separator = cfg.Tokenize.Separator
			}
			if !flags.Changed("strict") {
				opts.Strict = cfg.Tokenize.Strict
			}
			if !flags.Changed("json") {
				format, err := config.NormalizeFormat(cfg.Tokenize.Format)
				if err != nil {
					return err
				}
				opts.JSON = format == config.FormatJSON
			}

			idx, err := loadIndex(cfg)
			if err != nil {
				return err
			}
			seg := tokenizer.New(idx)

			out := cmd.OutOrStdout()
			if opts.CSV {
				return tokenizeCSV(seg, cmd.InOrStdin(), out, opts)
			}

			warnUnknownLanguage(idx, opts.Language)
			if len(args) > 0 {
				return tokenizeLines(seg, lineSlice(args), out, opts)
			}
			return tokenizeLines(seg, lineScanner(cmd.InOrStdin()), out, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Language, "language", "l", "", "Language id or alias (empty uses the fallback inventory)")
	f.StringVar(&opts.Separator, "separator", " ", "Separator between printed tokens")
	f.BoolVar(&opts.Strict, "strict", false, "Fail on symbols no inventory covers")
	f.BoolVar(&opts.JSON, "json", false, "Emit one JSON object per input line")
	f.BoolVar(&opts.CSV, "csv", false, "Read CSV rows from stdin and replace the transcription column with tokens")
	f.IntVarP(&opts.Index, "index", "n", 0, "CSV column of the transcription")
	f.IntVar(&opts.LanguageIndex, "language-index", -1, "CSV column of the language id (-1 = use --language)")
	f.BoolVarP(&opts.Silent, "silent", "s", false, "In CSV strict mode, skip rows with unknown symbols instead of failing")

	return cmd
}

// lineSource yields input lines until it returns false.
type lineSource func() (string, bool, error)

func lineSlice(lines []string) lineSource {
	i := 0
	return func() (string, bool, error) {
		if i >= len(lines) {
			return "", false, nil
		}
		i++
		return lines[i-1], true, nil
	}
}

func lineScanner(r io.Reader) lineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return func() (string, bool, error) {
		if sc.Scan() {
			return text.TrimLine(sc.Text()), true, nil
		}
		return "", false, sc.Err()
	}
}

type tokenizeLine struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Tokens   []string `json:"tokens"`
	Unknown  []string `json:"unknown"`
}

func tokenizeLines(seg *tokenizer.Segmenter, next lineSource, w io.Writer, opts tokenizeOptions) error {
	enc := json.NewEncoder(w)
	language := seg.Index().Lookup(opts.Language).ID()

	for n := 1; ; n++ {
		line, ok, err := next()
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if !ok {
			return nil
		}

		if opts.Strict {
			if err := seg.Check(line, opts.Language); err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
		}

		tokens := seg.Tokenize(line, opts.Language)
		if opts.JSON {
			unknown := seg.Unknown(line, opts.Language)
			if unknown == nil {
				unknown = []string{}
			}
			err = enc.Encode(tokenizeLine{Text: line, Language: language, Tokens: tokens, Unknown: unknown})
		} else {
			_, err = fmt.Fprintln(w, strings.Join(tokens, opts.Separator))
		}
		if err != nil {
			return err
		}
	}
}

func tokenizeCSV(seg *tokenizer.Segmenter, r io.Reader, w io.Writer, opts tokenizeOptions) error {
	if opts.Index < 0 {
		return fmt.Errorf("--index must not be negative, got %d", opts.Index)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cw := csv.NewWriter(w)

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}

		if opts.Index >= len(row) {
			return fmt.Errorf("index %d out of range: %q", opts.Index, row)
		}

		language := opts.Language
		if opts.LanguageIndex >= 0 {
			if opts.LanguageIndex >= len(row) {
				return fmt.Errorf("language index %d out of range: %q", opts.LanguageIndex, row)
			}
			language = row[opts.LanguageIndex]
		}

		if opts.Strict {
			if err := seg.Check(row[opts.Index], language); err != nil {
				if opts.Silent {
					continue
				}
				var unknown *tokenizer.UnknownSymbolError
				if errors.As(err, &unknown) {
					return fmt.Errorf("unexpected [%s] in %s: %q", unknown.Symbol, unknown.Text, row)
				}
				return err
			}
		}

		row[opts.Index] = strings.Join(seg.Tokenize(row[opts.Index], language), " ")
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
