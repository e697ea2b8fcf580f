// Package stats tokenizes transcription corpora and accounts for the symbols
// no inventory covers.
package stats

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/example/go-ipatok/internal/tokenizer"
)

// Record is one row of a corpus: a language id, the word, and its
// transcription.
type Record struct {
	Language      string `json:"language"`
	Word          string `json:"word"`
	Transcription string `json:"transcription"`
}

// Checker reports the first uncovered symbol of a transcription.
type Checker interface {
	Check(text, language string) error
}

// ---------------------------------------------------------------------------
// Counter
// ---------------------------------------------------------------------------

// LanguageCount is the number of failures a symbol caused in one language.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// SymbolCount aggregates the failures caused by one symbol.
type SymbolCount struct {
	Symbol    string          `json:"symbol"`
	Count     int             `json:"count"`
	Languages []LanguageCount `json:"languages"`
}

// Counter records unknown symbols per language. Ties in MostCommon keep the
// order in which symbols and languages were first recorded.
type Counter struct {
	order     []string
	counts    map[string]int
	langOrder map[string][]string
	langs     map[string]map[string]int
}

func NewCounter() *Counter {
	return &Counter{
		counts:    make(map[string]int),
		langOrder: make(map[string][]string),
		langs:     make(map[string]map[string]int),
	}
}

// Record counts one occurrence of symbol in language.
func (c *Counter) Record(language, symbol string) {
	if _, ok := c.counts[symbol]; !ok {
		c.order = append(c.order, symbol)
		c.langs[symbol] = make(map[string]int)
	}
	c.counts[symbol]++

	if _, ok := c.langs[symbol][language]; !ok {
		c.langOrder[symbol] = append(c.langOrder[symbol], language)
	}
	c.langs[symbol][language]++
}

// Len returns the number of distinct symbols recorded.
func (c *Counter) Len() int { return len(c.order) }

// MostCommon returns symbols by descending count with their languages by
// descending count. A non-positive limit means no limit.
func (c *Counter) MostCommon(maxSymbols, maxLanguages int) []SymbolCount {
	syms := slices.Clone(c.order)
	slices.SortStableFunc(syms, func(a, b string) int { return c.counts[b] - c.counts[a] })
	if maxSymbols > 0 && len(syms) > maxSymbols {
		syms = syms[:maxSymbols]
	}

	out := make([]SymbolCount, 0, len(syms))
	for _, sym := range syms {
		langs := slices.Clone(c.langOrder[sym])
		byLang := c.langs[sym]
		slices.SortStableFunc(langs, func(a, b string) int { return byLang[b] - byLang[a] })
		if maxLanguages > 0 && len(langs) > maxLanguages {
			langs = langs[:maxLanguages]
		}

		sc := SymbolCount{Symbol: sym, Count: c.counts[sym], Languages: make([]LanguageCount, 0, len(langs))}
		for _, lang := range langs {
			sc.Languages = append(sc.Languages, LanguageCount{Language: lang, Count: byLang[lang]})
		}
		out = append(out, sc)
	}

	return out
}

// Summarize renders MostCommon as an indented report. It returns "" when
// nothing was recorded.
func (c *Counter) Summarize(maxSymbols, maxLanguages int) string {
	if c.Len() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Most common errors:\n")
	for _, sc := range c.MostCommon(maxSymbols, maxLanguages) {
		fmt.Fprintf(&b, "\t[%s] %d\n", sc.Symbol, sc.Count)
		for _, lc := range sc.Languages {
			fmt.Fprintf(&b, "\t\t%s %d\n", lc.Language, lc.Count)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Failure is a record that did not tokenize cleanly.
type Failure struct {
	Record
	Normalized string `json:"normalized"`
	Symbol     string `json:"symbol"`
}

// Report is the outcome of Run over a corpus.
type Report struct {
	Passed   int
	Failed   int
	Failures []Failure
	Counter  *Counter
}

// Score is the share of records that tokenized without unknown symbols. An
// empty corpus scores 0.
func (r Report) Score() float64 {
	total := r.Passed + r.Failed
	if total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(total)
}

type options struct {
	logger *slog.Logger
}

// Option configures Run.
type Option func(*options)

// WithLogger logs every failing record at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run checks every record and tallies the first unknown symbol of each
// failing transcription.
func Run(records []Record, chk Checker, optFns ...Option) (Report, error) {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}

	report := Report{Counter: NewCounter()}
	for _, rec := range records {
		err := chk.Check(rec.Transcription, rec.Language)
		if err == nil {
			report.Passed++
			continue
		}

		var unknown *tokenizer.UnknownSymbolError
		if !errors.As(err, &unknown) {
			return Report{}, fmt.Errorf("check %q (%s): %w", rec.Word, rec.Language, err)
		}

		report.Failed++
		report.Failures = append(report.Failures, Failure{
			Record:     rec,
			Normalized: unknown.Text,
			Symbol:     unknown.Symbol,
		})
		report.Counter.Record(rec.Language, unknown.Symbol)

		if opts.logger != nil {
			opts.logger.Warn("unknown symbol",
				slog.String("language", rec.Language),
				slog.String("word", rec.Word),
				slog.String("transcription", rec.Transcription),
				slog.String("symbol", unknown.Symbol),
				slog.Int("offset", unknown.Offset),
			)
		}
	}

	return report, nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search returns the records whose transcription contains substring.
func Search(records []Record, substring string) []Record {
	var out []Record
	for _, rec := range records {
		if strings.Contains(rec.Transcription, substring) {
			out = append(out, rec)
		}
	}
	return out
}
