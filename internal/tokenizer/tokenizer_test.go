package tokenizer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/example/go-ipatok/internal/inventory"
	"github.com/example/go-ipatok/internal/text"
)

// embedded returns a Segmenter over the bundled inventory data.
func embedded(t testing.TB) *Segmenter {
	t.Helper()

	idx, err := inventory.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	return New(idx)
}

func mustIndex(t *testing.T, fallback *inventory.Inventory, langs ...*inventory.Inventory) *inventory.Index {
	t.Helper()

	idx, err := inventory.NewIndex(fallback, langs...)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	return idx
}

func mustInventory(t *testing.T, id string, segments, boundaries []string) *inventory.Inventory {
	t.Helper()

	inv, err := inventory.New(id, segments, boundaries)
	if err != nil {
		t.Fatalf("inventory.New(%q): %v", id, err)
	}

	return inv
}

// ---------------------------------------------------------------------------
// Scenarios against the bundled data
// ---------------------------------------------------------------------------

func TestTokenize_Scenarios(t *testing.T) {
	seg := embedded(t)

	tests := []struct {
		name     string
		text     string
		language string
		want     []string
	}{
		{
			name:     "english stress and syllable marks dropped",
			text:     "ˈtoʊ.kən.aɪz",
			language: "en",
			want:     []string{"t", "oʊ", "k", "ə", "n", "aɪ", "z"},
		},
		{
			name:     "empty input",
			text:     "",
			language: "en",
			want:     []string{},
		},
		{
			name: "single consonant without language",
			text: "t",
			want: []string{"t"},
		},
		{
			name:     "english affricate is one segment",
			text:     "tʃ",
			language: "en",
			want:     []string{"tʃ"},
		},
		{
			name:     "alias resolves to english",
			text:     "tʃ",
			language: "eng",
			want:     []string{"tʃ"},
		},
		{
			name: "no language splits affricate",
			text: "tʃ",
			want: []string{"t", "ʃ"},
		},
		{
			name: "no language keeps stress marks",
			text: "ˈtoʊ",
			want: []string{"ˈ", "t", "o", "ʊ"},
		},
		{
			name:     "german long vowel",
			text:     "ˈʃtʁaːsə",
			language: "de",
			want:     []string{"ʃ", "t", "ʁ", "aː", "s", "ə"},
		},
		{
			name:     "mandarin aspirate and tone contour",
			text:     "tʂʰɤ˥˩",
			language: "zh",
			want:     []string{"tʂʰ", "ɤ", "˥˩"},
		},
		{
			name:     "tie bar not in english inventory passes through fallback",
			text:     "t͡ʃ",
			language: "en",
			want:     []string{"t", "\u0361", "ʃ"},
		},
		{
			name:     "whitespace is a passthrough token",
			text:     "a b",
			language: "en",
			want:     []string{"a", " ", "b"},
		},
		{
			name:     "case sensitive",
			text:     "T",
			language: "en",
			want:     []string{"T"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seg.Tokenize(tt.text, tt.language)
			if got == nil {
				t.Fatal("Tokenize returned nil; want non-nil slice")
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q, %q) = %q; want %q", tt.text, tt.language, got, tt.want)
			}
		})
	}
}

func TestTokenize_DependsOnInventoryContents(t *testing.T) {
	with := New(mustIndex(t, nil, mustInventory(t, "en", []string{"t", "ʃ", "tʃ"}, nil)))
	without := New(mustIndex(t, nil, mustInventory(t, "en", []string{"t", "ʃ"}, nil)))

	if got := with.Tokenize("tʃ", "en"); !reflect.DeepEqual(got, []string{"tʃ"}) {
		t.Errorf("with tʃ: got %q", got)
	}

	if got := without.Tokenize("tʃ", "en"); !reflect.DeepEqual(got, []string{"t", "ʃ"}) {
		t.Errorf("without tʃ: got %q", got)
	}
}

func TestTokenize_WhitespaceInInventory(t *testing.T) {
	tests := []struct {
		name       string
		segments   []string
		boundaries []string
		want       []string
	}{
		{"space as boundary is dropped", []string{"a", "b"}, []string{" "}, []string{"a", "b"}},
		{"space as segment is kept", []string{"a", "b", " "}, nil, []string{"a", " ", "b"}},
		{"space not listed passes through", []string{"a", "b"}, nil, []string{"a", " ", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := New(mustIndex(t, nil, mustInventory(t, "x", tt.segments, tt.boundaries)))

			if got := seg.Tokenize("a b", "x"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize = %q; want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Algorithm details
// ---------------------------------------------------------------------------

func TestSegment_ActiveInventoryWinsOverLongerFallback(t *testing.T) {
	fb := mustInventory(t, inventory.DefaultID, []string{"abc", "c"}, nil)
	lang := mustInventory(t, "xx", []string{"ab"}, nil)
	seg := New(mustIndex(t, fb, lang))

	got := seg.Segment("abc", "xx")
	want := []Token{
		{Text: "ab", Offset: 0, Source: SourceLanguage},
		{Text: "c", Offset: 2, Source: SourceFallback},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v; want %+v", got, want)
	}
}

func TestSegment_FallbackMultiCodePoint(t *testing.T) {
	fb := mustInventory(t, inventory.DefaultID, []string{"a", "b", "ab"}, nil)
	seg := New(mustIndex(t, fb, mustInventory(t, "xx", []string{"c"}, nil)))

	if got := seg.Tokenize("abc", "xx"); !reflect.DeepEqual(got, []string{"ab", "c"}) {
		t.Errorf("Tokenize = %q; want [ab c]", got)
	}
}

func TestSegment_Provenance(t *testing.T) {
	seg := embedded(t)

	got := seg.Segment("ˈtʃo%", "en")
	want := []Token{
		{Text: "ˈ", Offset: 0, Source: SourceLanguage, Boundary: true},
		{Text: "tʃ", Offset: 1, Source: SourceLanguage},
		{Text: "o", Offset: 3, Source: SourceFallback},
		{Text: "%", Offset: 4, Source: SourceUnknown},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v; want %+v", got, want)
	}
}

func TestSegment_NoLanguageReportsFallback(t *testing.T) {
	seg := embedded(t)

	for _, tok := range seg.Segment("ˈtoʊ", "") {
		if tok.Source != SourceFallback {
			t.Errorf("token %q source = %v; want fallback", tok.Text, tok.Source)
		}

		if tok.Boundary {
			t.Errorf("token %q marked boundary without a language", tok.Text)
		}
	}
}

func TestSegment_FallbackBoundaries(t *testing.T) {
	fb := mustInventory(t, inventory.DefaultID, []string{"a", "b"}, []string{"."})
	seg := New(mustIndex(t, fb))

	if got := seg.Tokenize("a.b", ""); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Tokenize = %q; want [a b]", got)
	}
}

func TestNew_NilIndexUsesDefault(t *testing.T) {
	seg := New(nil)

	if seg.Index().Fallback() != inventory.Default() {
		t.Fatal("nil index should use the default fallback")
	}

	if got := seg.Tokenize("tʃ", "en"); !reflect.DeepEqual(got, []string{"t", "ʃ"}) {
		t.Errorf("Tokenize = %q; want [t ʃ]", got)
	}
}

func TestTokenize_NFC(t *testing.T) {
	pt := mustInventory(t, "pt", []string{"m", "a\u0303", "\u0303", "a", "w\u0303"}, nil)
	seg := New(mustIndex(t, nil, pt))

	precomposed := seg.Tokenize("m\u00e3", "pt")
	decomposed := seg.Tokenize("ma\u0303", "pt")

	if !reflect.DeepEqual(precomposed, decomposed) {
		t.Errorf("precomposed %q != decomposed %q", precomposed, decomposed)
	}

	if !reflect.DeepEqual(precomposed, []string{"m", "\u00e3"}) {
		t.Errorf("Tokenize = %q; want [m \u00e3]", precomposed)
	}
}

func TestSegment_InvalidUTF8PassesThrough(t *testing.T) {
	seg := embedded(t)

	got := seg.Segment("t\xffa\u0303", "")
	want := []Token{
		{Text: "t", Offset: 0, Source: SourceFallback},
		{Text: "\xff", Offset: 1, Source: SourceUnknown},
		{Text: "\u00e3", Offset: 2, Source: SourceFallback},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v; want %+v", got, want)
	}

	if joined := strings.Join(seg.Tokenize("t\xffa", ""), ""); joined != "t\xffa" {
		t.Errorf("joined tokens = %q; want input bytes back", joined)
	}

	var unknown *UnknownSymbolError
	if err := seg.Check("t\xffa", ""); !errors.As(err, &unknown) || unknown.Symbol != "\xff" || unknown.Offset != 1 {
		t.Errorf("Check error = %v; want unknown \\xff at offset 1", err)
	}
}

// ---------------------------------------------------------------------------
// Check / Unknown
// ---------------------------------------------------------------------------

func TestCheck(t *testing.T) {
	seg := embedded(t)

	if err := seg.Check("ˈtoʊ.kən", "en"); err != nil {
		t.Errorf("Check(valid) = %v; want nil", err)
	}

	err := seg.Check("ta%b", "en")

	var unknown *UnknownSymbolError
	if !errors.As(err, &unknown) {
		t.Fatalf("Check error = %v; want *UnknownSymbolError", err)
	}

	if unknown.Symbol != "%" || unknown.Offset != 2 || unknown.Text != "ta%b" {
		t.Errorf("unexpected error fields: %+v", unknown)
	}

	if !strings.Contains(unknown.Error(), "U+0025") {
		t.Errorf("Error() = %q; want code point", unknown.Error())
	}
}

func TestUnknown(t *testing.T) {
	seg := embedded(t)

	got := seg.Unknown("a%b T", "en")
	want := []string{"%", " ", "T"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unknown = %q; want %q", got, want)
	}

	if got := seg.Unknown("toʊ", "en"); got != nil {
		t.Errorf("Unknown(valid) = %q; want nil", got)
	}
}

func TestSource_String(t *testing.T) {
	tests := map[Source]string{
		SourceLanguage: "language",
		SourceFallback: "fallback",
		SourceUnknown:  "unknown",
		Source(9):      "Source(9)",
	}

	for src, want := range tests {
		if got := src.String(); got != want {
			t.Errorf("%d.String() = %q; want %q", int(src), got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

var alphabet = []rune("tdkɡpbʃʒoʊaɪəɛnmŋlɹszˈˌ.ː \u0329\u0303\u0361%Tx˥˩ʰ")

func randomInputs(n int) []string {
	r := rand.New(rand.NewPCG(1, 2))

	out := make([]string, n)
	for i := range out {
		var sb strings.Builder
		for range r.IntN(24) {
			sb.WriteRune(alphabet[r.IntN(len(alphabet))])
		}
		out[i] = sb.String()
	}

	return out
}

func TestProperties(t *testing.T) {
	seg := embedded(t)
	inputs := append(randomInputs(500), "", "ˈtoʊ.kən.aɪz", "t͡ʃ", "   ")

	for _, language := range []string{"", "en", "de", "zh", "nonexistent-code"} {
		active := seg.Index().Lookup(language)

		for _, input := range inputs {
			tokens := seg.Segment(input, language)

			// Round-trip including boundary tokens.
			var sb strings.Builder
			for _, tok := range tokens {
				if tok.Text == "" {
					t.Fatalf("empty token for %q/%q", input, language)
				}
				sb.WriteString(tok.Text)
			}

			if got, want := sb.String(), text.NFC(input); got != want {
				t.Fatalf("round-trip %q/%q: got %q", input, language, got)
			}

			// Greedy maximality within the active inventory.
			runes := []rune(text.NFC(input))
			for _, tok := range tokens {
				if tok.Source != SourceLanguage {
					continue
				}

				n := len([]rune(tok.Text))
				for m := n + 1; m <= active.MaxLen() && tok.Offset+m <= len(runes); m++ {
					if longer := string(runes[tok.Offset : tok.Offset+m]); active.Contains(longer) {
						t.Fatalf("%q/%q: emitted %q but %q also matches", input, language, tok.Text, longer)
					}
				}
			}

			// Determinism.
			if again := seg.Segment(input, language); !reflect.DeepEqual(again, tokens) {
				t.Fatalf("non-deterministic output for %q/%q", input, language)
			}
		}
	}

	// Unknown language behaves like no language.
	for _, input := range inputs {
		if a, b := seg.Tokenize(input, "nonexistent-code"), seg.Tokenize(input, ""); !reflect.DeepEqual(a, b) {
			t.Fatalf("unknown language %q != none %q for %q", a, b, input)
		}
	}
}

func TestTokenize_ConcurrentUse(t *testing.T) {
	seg := embedded(t)
	want := seg.Tokenize("ˈtoʊ.kən.aɪz", "en")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if got := seg.Tokenize("ˈtoʊ.kən.aɪz", "en"); !reflect.DeepEqual(got, want) {
					t.Errorf("concurrent Tokenize = %q; want %q", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

type capturingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(_ string) slog.Handler      { return c }

func TestSegment_LogsUnknownSymbols(t *testing.T) {
	idx, err := inventory.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	cap := &capturingHandler{}
	seg := New(idx, WithLogger(slog.New(cap)))

	seg.Tokenize("a%", "en")

	if len(cap.records) != 1 {
		t.Fatalf("want 1 log record, got %d", len(cap.records))
	}

	rec := cap.records[0]
	if rec.Level != slog.LevelDebug {
		t.Errorf("level = %v; want debug", rec.Level)
	}

	attrs := map[string]any{}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	if attrs["symbol"] != "%" || attrs["language"] != "en" {
		t.Errorf("unexpected attrs: %v", attrs)
	}
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func BenchmarkTokenize(b *testing.B) {
	seg := embedded(b)

	b.ReportAllocs()
	for b.Loop() {
		seg.Tokenize("ˈtoʊ.kən.aɪz ˈʃtʁaːsə tʂʰɤ˥˩", "en")
	}
}
