package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ulikunitz/xz"
)

// ReadRecords parses language, word, transcription rows separated by comma.
func ReadRecords(r io.Reader, comma rune) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = comma == '\t'

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if len(row) != 3 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", line, len(row))
		}

		out = append(out, Record{Language: row[0], Word: row[1], Transcription: row[2]})
	}

	return out, nil
}

// ReadFile reads a corpus file. Files ending in .tsv (optionally .tsv.xz)
// are tab-separated, everything else comma-separated.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	name := path
	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(name), ".xz") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz stream %q: %w", path, err)
		}
		r = xr
	}

	comma := ','
	if strings.EqualFold(filepath.Ext(name), ".tsv") {
		comma = '\t'
	}

	records, err := ReadRecords(r, comma)
	if err != nil {
		return nil, fmt.Errorf("read corpus %q: %w", path, err)
	}
	return records, nil
}

var escapePattern = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

// DecodeEscapes replaces \uXXXX sequences with the code points they name so
// combining marks can be typed on a command line. Escapes naming a surrogate
// are left as written.
func DecodeEscapes(s string) string {
	return escapePattern.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return m
		}
		return string(rune(n))
	})
}
