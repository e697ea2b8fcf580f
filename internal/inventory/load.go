package inventory

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/go-ipatok/internal/text"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

//go:embed data/inventories.yaml
var embeddedInventories []byte

// Format identifies the encoding of an inventory asset.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

var (
	// ErrEmptyPath is returned when Load is called with an empty path.
	ErrEmptyPath = errors.New("inventory path must not be empty")
	// ErrUnknownFormat is returned for asset files with an unrecognized extension.
	ErrUnknownFormat = errors.New("unknown inventory format")
)

// lengthMark is dropped from CSV inventories when it appears on its own; it
// only forms segments together with a preceding symbol.
const lengthMark = "ː"

type loadOptions struct {
	boundaries []string
}

// LoadOption configures Parse and Load.
type LoadOption func(*loadOptions)

// WithBoundaries marks symbols as boundaries in every language read from a
// CSV or TSV source. YAML sources declare their own boundaries.
func WithBoundaries(b ...string) LoadOption {
	return func(o *loadOptions) { o.boundaries = append(o.boundaries, b...) }
}

// LoadEmbedded returns the Index built from the inventory data compiled into
// the binary.
func LoadEmbedded() (*Index, error) {
	idx, err := Parse(bytes.NewReader(embeddedInventories), FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded inventories: %w", err)
	}
	return idx, nil
}

// Load reads an inventory asset from path. The format follows the extension
// (.yaml, .yml, .json, .csv, .tsv); a trailing .xz is decompressed first.
func Load(path string, opts ...LoadOption) (*Index, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	name := path
	compressed := strings.EqualFold(filepath.Ext(name), ".xz")
	if compressed {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	format, err := FormatFromPath(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if compressed {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz stream %q: %w", path, err)
		}
		r = xr
	}

	idx, err := Parse(r, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("load inventory %q: %w", path, err)
	}
	return idx, nil
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Parse decodes an inventory asset from r.
func Parse(r io.Reader, format Format, opts ...LoadOption) (*Index, error) {
	var o loadOptions
	for _, fn := range opts {
		fn(&o)
	}

	switch format {
	case FormatYAML:
		return parseYAML(r)
	case FormatCSV:
		return parseDelimited(r, ',', o)
	case FormatTSV:
		return parseDelimited(r, '\t', o)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

type yamlDocument struct {
	Fallback  *yamlInventory `yaml:"fallback"`
	Languages []yamlLanguage `yaml:"languages"`
}

type yamlInventory struct {
	Segments   segmentList `yaml:"segments"`
	Boundaries segmentList `yaml:"boundaries"`
}

type yamlLanguage struct {
	ID            string   `yaml:"id"`
	Aliases       []string `yaml:"aliases"`
	yamlInventory `yaml:",inline"`
}

// segmentList accepts either a YAML sequence of strings or a single
// space-separated string.
type segmentList []string

func (l *segmentList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = strings.Fields(node.Value)
		return nil
	}

	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

func parseYAML(r io.Reader) (*Index, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	b := NewBuilder()
	if doc.Fallback != nil {
		fb, err := New(DefaultID, doc.Fallback.Segments, doc.Fallback.Boundaries)
		if err != nil {
			return nil, err
		}
		b.SetFallback(fb)
	}

	for _, lang := range doc.Languages {
		inv, err := New(lang.ID, lang.Segments, lang.Boundaries)
		if err != nil {
			return nil, err
		}
		b.Add(inv, lang.Aliases...)
	}

	return b.Build()
}

// ---------------------------------------------------------------------------
// CSV / TSV
// ---------------------------------------------------------------------------

// parseDelimited reads rows of "language,segment segment ...". Rows sharing a
// language are merged and repeated segments collapse.
func parseDelimited(r io.Reader, comma rune, o loadOptions) (*Index, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = comma == '\t'

	var order []string
	merged := make(map[string][]string)
	seen := make(map[string]map[string]struct{})

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if len(record) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", line, len(record))
		}

		id := strings.TrimSpace(record[0])
		if id == "" {
			return nil, fmt.Errorf("line %d: %w", line, ErrEmptyLanguage)
		}

		if _, ok := merged[id]; !ok {
			order = append(order, id)
			merged[id] = nil
			seen[id] = make(map[string]struct{})
		}

		for _, raw := range strings.Fields(record[1]) {
			seg := text.NFC(raw)
			if seg == lengthMark {
				continue
			}
			if _, dup := seen[id][seg]; dup {
				continue
			}
			seen[id][seg] = struct{}{}
			merged[id] = append(merged[id], seg)
		}
	}

	b := NewBuilder()
	for _, id := range order {
		inv, err := New(id, merged[id], o.boundaries)
		if err != nil {
			return nil, err
		}
		b.Add(inv)
	}

	return b.Build()
}
