// Package doctor provides inventory preflight checks for ipatok.
package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/go-ipatok/internal/inventory"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// LoadFunc builds the index under inspection.
type LoadFunc func() (*inventory.Index, error)

// DigestFunc returns the inventory digest reported by a remote component.
type DigestFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Source describes where the inventories come from, e.g. a path or "embedded".
	Source string
	// Load builds the index. Required.
	Load LoadFunc
	// Require lists language ids (or aliases) that must resolve.
	Require []string
	// ServerDigest, when set, fetches the digest of a running server to
	// compare against the local one.
	ServerDigest DigestFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- load -------------------------------------------------------------
	if cfg.Load == nil {
		res.fail("inventory: no loader configured")
		fmt.Fprintf(w, "%s inventory: no loader configured\n", FailMark)
		return res
	}

	idx, err := cfg.Load()
	if err != nil {
		res.fail(fmt.Sprintf("inventory %s: %v", cfg.Source, err))
		fmt.Fprintf(w, "%s inventory %s: %v\n", FailMark, cfg.Source, err)
		return res
	}
	fmt.Fprintf(w, "%s inventory: %s (%d languages)\n", PassMark, cfg.Source, len(idx.Languages()))
	fmt.Fprintf(w, "%s fallback: %d segments\n", PassMark, idx.Fallback().Len())

	// ---- coverage ---------------------------------------------------------
	gaps := idx.Uncovered()
	for _, id := range idx.Languages() {
		missing, ok := gaps[id]
		if !ok {
			fmt.Fprintf(w, "%s coverage %s: %d segments\n", PassMark, id, idx.Lookup(id).Len())
			continue
		}
		res.fail(fmt.Sprintf("coverage %s: %d code points outside fallback", id, len(missing)))
		fmt.Fprintf(w, "%s coverage %s: not covered by fallback: %s\n", FailMark, id, formatRunes(missing))
	}

	// ---- required languages -----------------------------------------------
	for _, id := range cfg.Require {
		if !idx.Has(id) {
			res.fail(fmt.Sprintf("language %q: not found", id))
			fmt.Fprintf(w, "%s language %s: not found\n", FailMark, id)
			continue
		}
		fmt.Fprintf(w, "%s language %s: %s\n", PassMark, id, idx.Lookup(id).ID())
	}

	// ---- digest -----------------------------------------------------------
	digest := idx.Digest()
	fmt.Fprintf(w, "%s digest: %s\n", PassMark, digest)

	if cfg.ServerDigest != nil {
		remote, err := cfg.ServerDigest()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("server digest: %v", err))
			fmt.Fprintf(w, "%s server digest: unreachable (%v)\n", FailMark, err)
		case remote != digest:
			res.fail(fmt.Sprintf("server digest: %s differs from local %s", remote, digest))
			fmt.Fprintf(w, "%s server digest: %s (local %s)\n", FailMark, remote, digest)
		default:
			fmt.Fprintf(w, "%s server digest: matches\n", PassMark)
		}
	}

	return res
}

func formatRunes(rs []rune) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("%U", r)
	}
	return strings.Join(parts, " ")
}
