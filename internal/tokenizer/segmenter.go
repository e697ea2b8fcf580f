package tokenizer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-ipatok/internal/inventory"
	"github.com/example/go-ipatok/internal/text"
)

// Source tells which inventory produced a token.
type Source int

const (
	// SourceLanguage marks a segment of the requested language's inventory.
	SourceLanguage Source = iota
	// SourceFallback marks a segment of the universal fallback inventory.
	SourceFallback
	// SourceUnknown marks a code point found in neither inventory.
	SourceUnknown
)

func (s Source) String() string {
	switch s {
	case SourceLanguage:
		return "language"
	case SourceFallback:
		return "fallback"
	case SourceUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Token is one segment together with where it came from.
type Token struct {
	Text     string
	Offset   int // code point offset into the NFC form of the input; an invalid byte counts as one
	Source   Source
	Boundary bool // dropped by Tokenize
}

// UnknownSymbolError is returned by Check for a code point that no inventory
// covers.
type UnknownSymbolError struct {
	Symbol string
	Offset int
	Text   string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q (%U) at offset %d in %q", e.Symbol, []rune(e.Symbol), e.Offset, e.Text)
}

type options struct {
	logger *slog.Logger
}

// Option configures a Segmenter.
type Option func(*options)

// WithLogger sets the logger used to report unknown symbols at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Segmenter implements Tokenizer over an inventory.Index. It holds no mutable
// state and is safe for concurrent use.
type Segmenter struct {
	index *inventory.Index
	log   *slog.Logger
}

var _ Tokenizer = (*Segmenter)(nil)

// New returns a Segmenter backed by idx. A nil idx uses only the default
// fallback inventory.
func New(idx *inventory.Index, optFns ...Option) *Segmenter {
	opts := options{logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}

	if idx == nil {
		// An index without languages cannot fail to build.
		idx, _ = inventory.NewIndex(nil)
	}

	return &Segmenter{index: idx, log: opts.logger}
}

// Index returns the inventory index the segmenter reads from.
func (s *Segmenter) Index() *inventory.Index { return s.index }

// Tokenize splits text into segments, omitting boundary markers of the
// language inventory. Concatenating the result reproduces the NFC form of
// text minus those markers. Bytes that are not valid UTF-8 pass through as
// unknown single-byte tokens.
func (s *Segmenter) Tokenize(input, language string) []string {
	tokens := s.Segment(input, language)

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Boundary {
			continue
		}
		out = append(out, tok.Text)
	}

	return out
}

// Segment is Tokenize with provenance. Boundary markers are included and
// flagged.
func (s *Segmenter) Segment(input, language string) []Token {
	active := s.index.Lookup(language)
	fallback := s.index.Fallback()

	activeSource := SourceLanguage
	if active == fallback {
		activeSource = SourceFallback
	}

	units := text.Split(input)
	tokens := make([]Token, 0, len(units))

	for pos := 0; pos < len(units); {
		if seg, n := longestMatch(active, units, pos); n > 0 {
			tokens = append(tokens, Token{
				Text:     seg,
				Offset:   pos,
				Source:   activeSource,
				Boundary: active.IsBoundary(seg),
			})
			pos += n
			continue
		}

		if active != fallback {
			if seg, n := longestMatch(fallback, units, pos); n > 0 {
				tokens = append(tokens, Token{Text: seg, Offset: pos, Source: SourceFallback})
				pos += n
				continue
			}
		}

		sym := units[pos]
		s.log.Debug("unknown symbol",
			slog.String("symbol", sym),
			slog.Int("offset", pos),
			slog.String("language", language),
		)
		tokens = append(tokens, Token{Text: sym, Offset: pos, Source: SourceUnknown})
		pos++
	}

	return tokens
}

// Check reports the first code point of text that neither the language
// inventory nor the fallback covers.
func (s *Segmenter) Check(input, language string) error {
	for _, tok := range s.Segment(input, language) {
		if tok.Source == SourceUnknown {
			return &UnknownSymbolError{Symbol: tok.Text, Offset: tok.Offset, Text: strings.Join(text.Split(input), "")}
		}
	}
	return nil
}

// Unknown returns every passthrough symbol of text in order of appearance.
func (s *Segmenter) Unknown(input, language string) []string {
	var out []string
	for _, tok := range s.Segment(input, language) {
		if tok.Source == SourceUnknown {
			out = append(out, tok.Text)
		}
	}
	return out
}

// longestMatch returns the longest segment of inv starting at units[pos],
// trying lengths from inv.MaxLen() down to 1.
func longestMatch(inv *inventory.Inventory, units []string, pos int) (string, int) {
	for n := min(inv.MaxLen(), len(units)-pos); n > 0; n-- {
		if seg := strings.Join(units[pos:pos+n], ""); inv.Contains(seg) {
			return seg, n
		}
	}
	return "", 0
}
