package inventory_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-ipatok/internal/inventory"
	"github.com/example/go-ipatok/internal/testutil"
)

// ---------------------------------------------------------------------------
// Embedded data
// ---------------------------------------------------------------------------

func TestLoadEmbedded(t *testing.T) {
	idx, err := inventory.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	for _, id := range []string{"en", "de", "fr", "zh", "eng", "cmn"} {
		if !idx.Has(id) {
			t.Errorf("embedded index missing %q", id)
		}
	}

	en := idx.Lookup("en")
	for _, seg := range []string{"oʊ", "aɪ", "tʃ", "dʒ", "t", "ə"} {
		if !en.Contains(seg) {
			t.Errorf("en inventory missing %q", seg)
		}
	}

	for _, b := range []string{"ˈ", "ˌ", "."} {
		if !en.IsBoundary(b) {
			t.Errorf("en inventory should mark %q as boundary", b)
		}
	}

	if gaps := idx.Uncovered(); len(gaps) != 0 {
		t.Errorf("embedded inventories have uncovered code points: %q", gaps)
	}
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

func TestParseYAML(t *testing.T) {
	src := `
fallback:
  segments: [a, b, c]
languages:
  - id: xx
    aliases: [xxx]
    segments: "a b ab"
    boundaries: ["."]
  - id: yy
    segments:
      - c
      - ca
`
	idx, err := inventory.Parse(strings.NewReader(src), inventory.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if idx.Fallback().Len() != 3 {
		t.Errorf("fallback Len() = %d; want 3", idx.Fallback().Len())
	}

	xx := idx.Lookup("xxx")
	if xx.ID() != "xx" || !xx.Contains("ab") || !xx.IsBoundary(".") {
		t.Errorf("alias xxx resolved to %q with segments %q", xx.ID(), xx.Segments())
	}

	if !idx.Lookup("yy").Contains("ca") {
		t.Error("yy should contain ca")
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name:    "duplicate segment",
			src:     "languages:\n  - id: xx\n    segments: \"a a\"\n",
			wantErr: inventory.ErrDuplicateSegment,
		},
		{
			name:    "empty segment in list",
			src:     "languages:\n  - id: xx\n    segments: [\"a\", \"\"]\n",
			wantErr: inventory.ErrEmptySegment,
		},
		{
			name:    "duplicate language",
			src:     "languages:\n  - id: xx\n    segments: a\n  - id: xx\n    segments: b\n",
			wantErr: inventory.ErrDuplicateLanguage,
		},
		{
			name:    "missing id",
			src:     "languages:\n  - segments: a\n",
			wantErr: inventory.ErrEmptyLanguage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inventory.Parse(strings.NewReader(tt.src), inventory.FormatYAML)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := inventory.Parse(strings.NewReader("langs: []\n"), inventory.FormatYAML)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseYAML_EmptyDocument(t *testing.T) {
	idx, err := inventory.Parse(strings.NewReader(""), inventory.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if idx.Fallback() != inventory.Default() {
		t.Error("empty document should keep the default fallback")
	}
}

// ---------------------------------------------------------------------------
// CSV / TSV
// ---------------------------------------------------------------------------

func TestParseCSV_MergesRows(t *testing.T) {
	src := "# glottocode,sounds\n" +
		"stan1293,t d tʃ\n" +
		"stan1293,\"tʃ ː oʊ\"\n" +
		"gaga1251,ɯ̯ɤ̞ a\n"

	idx, err := inventory.Parse(strings.NewReader(src), inventory.FormatCSV, inventory.WithBoundaries("."))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	en := idx.Lookup("stan1293")
	if en.ID() != "stan1293" {
		t.Fatalf("stan1293 not registered")
	}

	// t d tʃ oʊ plus the boundary.
	if en.Len() != 5 {
		t.Errorf("Len() = %d; want 5 (segments %q)", en.Len(), en.Segments())
	}

	if en.Contains("ː") {
		t.Error("standalone length mark should be discarded")
	}

	if !en.IsBoundary(".") {
		t.Error("WithBoundaries should apply to CSV languages")
	}

	if !idx.Lookup("gaga1251").Contains("ɯ̯ɤ̞") {
		t.Error("gaga1251 missing diphthong")
	}
}

func TestParseTSV(t *testing.T) {
	src := "xx\ta b\nyy\tc\n"

	idx, err := inventory.Parse(strings.NewReader(src), inventory.FormatTSV)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := idx.Languages(); len(got) != 2 {
		t.Errorf("Languages() = %q; want 2 entries", got)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"too many fields", "xx,a,b\n", nil},
		{"empty id", ",a\n", inventory.ErrEmptyLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inventory.Parse(strings.NewReader(tt.src), inventory.FormatCSV)
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v; want %v", err, tt.wantErr)
			}

			if !strings.Contains(err.Error(), "line 1") {
				t.Errorf("error %q should name the line", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_ByExtension(t *testing.T) {
	yamlPath := testutil.WriteFile(t, "inv.yaml", "languages:\n  - id: xx\n    segments: \"a b\"\n")
	jsonPath := testutil.WriteFile(t, "inv.json", `{"languages": [{"id": "xx", "segments": ["a", "b"]}]}`)
	csvPath := testutil.WriteFile(t, "inv.csv", "xx,a b\n")

	for _, path := range []string{yamlPath, jsonPath, csvPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			idx, err := inventory.Load(path)
			if err != nil {
				t.Fatalf("Load(%q): %v", path, err)
			}

			if idx.Lookup("xx").Len() != 2 {
				t.Errorf("xx Len() = %d; want 2", idx.Lookup("xx").Len())
			}
		})
	}
}

func TestLoad_XZ(t *testing.T) {
	path := testutil.WriteXZ(t, "inv.csv.xz", "xx,a b tʃ\n")

	idx, err := inventory.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !idx.Lookup("xx").Contains("tʃ") {
		t.Error("xz-compressed inventory not decoded")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := inventory.Load(""); !errors.Is(err, inventory.ErrEmptyPath) {
		t.Errorf("Load(\"\") error = %v; want ErrEmptyPath", err)
	}

	if _, err := inventory.Load("inv.txt"); !errors.Is(err, inventory.ErrUnknownFormat) {
		t.Errorf("Load(inv.txt) error = %v; want ErrUnknownFormat", err)
	}

	if _, err := inventory.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want inventory.Format
	}{
		{"a.yaml", inventory.FormatYAML},
		{"a.YML", inventory.FormatYAML},
		{"a.json", inventory.FormatYAML},
		{"a.csv", inventory.FormatCSV},
		{"a.tsv", inventory.FormatTSV},
	}

	for _, tt := range tests {
		got, err := inventory.FormatFromPath(tt.path)
		if err != nil {
			t.Errorf("FormatFromPath(%q): %v", tt.path, err)
			continue
		}

		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q; want %q", tt.path, got, tt.want)
		}
	}
}
