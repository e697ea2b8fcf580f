// Package inventory holds the phoneme inventories consulted by the IPA
// segmenter: one segment set per language plus a universal fallback set.
//
// Inventories and the Index are immutable once constructed and may be shared
// by any number of goroutines without locking.
package inventory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/go-ipatok/internal/text"
)

var (
	// ErrEmptySegment is returned when an inventory lists an empty segment.
	ErrEmptySegment = errors.New("empty segment")
	// ErrDuplicateSegment is returned when an inventory lists the same segment
	// twice (after NFC normalization).
	ErrDuplicateSegment = errors.New("duplicate segment")
)

// Inventory is the set of valid segments for one language. A subset of the
// segments may be marked as boundaries; the segmenter drops those.
type Inventory struct {
	id         string
	segments   map[string]struct{}
	boundaries map[string]struct{}
	maxLen     int
}

// New builds an inventory from segment and boundary strings. Every entry is
// normalized to NFC. Boundary entries are members of the segment set whether
// or not segments lists them.
func New(id string, segments, boundaries []string) (*Inventory, error) {
	inv := &Inventory{
		id:         id,
		segments:   make(map[string]struct{}, len(segments)+len(boundaries)),
		boundaries: make(map[string]struct{}, len(boundaries)),
	}

	for i, raw := range segments {
		seg := text.NFC(raw)
		if seg == "" {
			return nil, fmt.Errorf("inventory %q: segment %d: %w", id, i, ErrEmptySegment)
		}
		if _, ok := inv.segments[seg]; ok {
			return nil, fmt.Errorf("inventory %q: %w %q", id, ErrDuplicateSegment, seg)
		}
		inv.add(seg)
	}

	for i, raw := range boundaries {
		seg := text.NFC(raw)
		if seg == "" {
			return nil, fmt.Errorf("inventory %q: boundary %d: %w", id, i, ErrEmptySegment)
		}
		if _, ok := inv.boundaries[seg]; ok {
			return nil, fmt.Errorf("inventory %q: boundary: %w %q", id, ErrDuplicateSegment, seg)
		}
		inv.boundaries[seg] = struct{}{}
		if _, ok := inv.segments[seg]; !ok {
			inv.add(seg)
		}
	}

	return inv, nil
}

func (inv *Inventory) add(seg string) {
	inv.segments[seg] = struct{}{}
	if n := text.RuneLen(seg); n > inv.maxLen {
		inv.maxLen = n
	}
}

// ID returns the language identifier the inventory was built for.
func (inv *Inventory) ID() string { return inv.id }

// Contains reports whether seg is a segment of the inventory. Lookup is exact;
// callers must pass NFC strings.
func (inv *Inventory) Contains(seg string) bool {
	_, ok := inv.segments[seg]
	return ok
}

// IsBoundary reports whether seg is a droppable boundary marker.
func (inv *Inventory) IsBoundary(seg string) bool {
	_, ok := inv.boundaries[seg]
	return ok
}

// MaxLen returns the length in code points of the longest segment.
func (inv *Inventory) MaxLen() int { return inv.maxLen }

// Len returns the number of segments, boundaries included.
func (inv *Inventory) Len() int { return len(inv.segments) }

// Segments returns the segments in sorted order.
func (inv *Inventory) Segments() []string { return sortedKeys(inv.segments) }

// Boundaries returns the boundary markers in sorted order.
func (inv *Inventory) Boundaries() []string { return sortedKeys(inv.boundaries) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
