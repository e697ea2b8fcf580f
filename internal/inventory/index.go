package inventory

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/blake3"
)

var (
	// ErrEmptyLanguage is returned when an inventory or alias has an empty id.
	ErrEmptyLanguage = errors.New("empty language id")
	// ErrDuplicateLanguage is returned when two inventories or aliases claim
	// the same language id.
	ErrDuplicateLanguage = errors.New("duplicate language id")
)

// Index maps language identifiers to inventories. Unknown identifiers resolve
// to the fallback inventory.
type Index struct {
	fallback  *Inventory
	languages map[string]*Inventory
	aliases   map[string]string // alias -> canonical id
}

// Builder collects inventories for an Index. The first error encountered is
// kept and returned by Build.
type Builder struct {
	fallback  *Inventory
	languages map[string]*Inventory
	aliases   map[string]string
	err       error
}

// NewBuilder returns an empty Builder whose fallback is Default().
func NewBuilder() *Builder {
	return &Builder{
		languages: make(map[string]*Inventory),
		aliases:   make(map[string]string),
	}
}

// SetFallback replaces the default fallback inventory.
func (b *Builder) SetFallback(inv *Inventory) *Builder {
	b.fallback = inv
	return b
}

// Add registers inv under its own id and under every alias.
func (b *Builder) Add(inv *Inventory, aliases ...string) *Builder {
	if b.err != nil {
		return b
	}

	id := inv.ID()
	if err := b.claim(id); err != nil {
		b.err = err
		return b
	}
	b.languages[id] = inv

	for _, alias := range aliases {
		if err := b.claim(alias); err != nil {
			b.err = fmt.Errorf("alias of %q: %w", id, err)
			return b
		}
		b.aliases[alias] = id
	}

	return b
}

func (b *Builder) claim(id string) error {
	if id == "" {
		return ErrEmptyLanguage
	}
	_, lang := b.languages[id]
	_, alias := b.aliases[id]
	if lang || alias {
		return fmt.Errorf("%w %q", ErrDuplicateLanguage, id)
	}
	return nil
}

// Build returns the finished Index.
func (b *Builder) Build() (*Index, error) {
	if b.err != nil {
		return nil, b.err
	}

	fallback := b.fallback
	if fallback == nil {
		fallback = Default()
	}

	languages := make(map[string]*Inventory, len(b.languages))
	for id, inv := range b.languages {
		languages[id] = inv
	}
	aliases := make(map[string]string, len(b.aliases))
	for alias, id := range b.aliases {
		aliases[alias] = id
	}

	return &Index{fallback: fallback, languages: languages, aliases: aliases}, nil
}

// NewIndex builds an Index from language inventories. A nil fallback selects
// Default().
func NewIndex(fallback *Inventory, langs ...*Inventory) (*Index, error) {
	b := NewBuilder().SetFallback(fallback)
	for _, inv := range langs {
		b.Add(inv)
	}
	return b.Build()
}

// Lookup returns the inventory registered for id. Empty or unknown ids return
// the fallback inventory.
func (idx *Index) Lookup(id string) *Inventory {
	if inv, ok := idx.resolve(id); ok {
		return inv
	}
	return idx.fallback
}

// Has reports whether id (or an alias) has a registered inventory.
func (idx *Index) Has(id string) bool {
	_, ok := idx.resolve(id)
	return ok
}

func (idx *Index) resolve(id string) (*Inventory, bool) {
	if id == "" {
		return nil, false
	}
	if canonical, ok := idx.aliases[id]; ok {
		id = canonical
	}
	inv, ok := idx.languages[id]
	return inv, ok
}

// Fallback returns the universal fallback inventory.
func (idx *Index) Fallback() *Inventory { return idx.fallback }

// Languages returns the canonical language ids in sorted order.
func (idx *Index) Languages() []string {
	out := make([]string, 0, len(idx.languages))
	for id := range idx.languages {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Aliases returns the aliases registered for the canonical id, sorted.
func (idx *Index) Aliases(id string) []string {
	var out []string
	for alias, canonical := range idx.aliases {
		if canonical == id {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Uncovered reports, per language, the code points that occur inside
// multi-code-point segments but are neither a single-code-point segment of
// that language nor of the fallback. Languages without gaps are omitted.
func (idx *Index) Uncovered() map[string][]rune {
	out := make(map[string][]rune)
	for id, inv := range idx.languages {
		seen := make(map[rune]struct{})
		for seg := range inv.segments {
			if utf8.RuneCountInString(seg) < 2 {
				continue
			}
			for _, r := range seg {
				s := string(r)
				if inv.Contains(s) || idx.fallback.Contains(s) {
					continue
				}
				seen[r] = struct{}{}
			}
		}
		if len(seen) == 0 {
			continue
		}
		runes := make([]rune, 0, len(seen))
		for r := range seen {
			runes = append(runes, r)
		}
		sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
		out[id] = runes
	}
	return out
}

// Digest returns the hex BLAKE3-256 hash of the index contents. It depends
// only on the data, not on the order inventories were added in.
func (idx *Index) Digest() string {
	h := blake3.New()
	writeInventory(h, "*", idx.fallback)
	for _, id := range idx.Languages() {
		writeInventory(h, id, idx.languages[id])
		for _, alias := range idx.Aliases(id) {
			_, _ = h.WriteString("alias\x1f" + alias + "\n")
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeInventory(h *blake3.Hasher, id string, inv *Inventory) {
	_, _ = h.WriteString("inventory\x1f" + id + "\n")
	_, _ = h.WriteString(strings.Join(inv.Segments(), "\x1f") + "\n")
	_, _ = h.WriteString(strings.Join(inv.Boundaries(), "\x1f") + "\n")
}
