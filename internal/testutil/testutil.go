// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so corpus tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestCorpusScore(t *testing.T) {
//	    path := testutil.RequireCorpus(t)
//	    idx := testutil.EmbeddedIndex(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-ipatok/internal/inventory"
	"github.com/ulikunitz/xz"
)

// CorpusEnv names the environment variable pointing at a language, word,
// transcription TSV used by corpus tests.
const CorpusEnv = "IPATOK_TEST_CORPUS"

// RequireCorpus skips the test unless CorpusEnv names an existing file and
// returns its path.
func RequireCorpus(tb testing.TB) string {
	tb.Helper()

	path := os.Getenv(CorpusEnv)
	if path == "" {
		tb.Skipf("corpus not configured; set %s to a TSV of language, word, transcription rows", CorpusEnv)
		return ""
	}

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("corpus not found at %s=%q", CorpusEnv, path)
		return ""
	}

	return path
}

// EmbeddedIndex returns the index built from the bundled inventories.
func EmbeddedIndex(tb testing.TB) *inventory.Index {
	tb.Helper()

	idx, err := inventory.LoadEmbedded()
	if err != nil {
		tb.Fatalf("LoadEmbedded: %v", err)
	}

	return idx
}

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(tb testing.TB, name, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}

	return path
}

// WriteXZ writes content xz-compressed to name inside a fresh temp dir and
// returns the path.
func WriteXZ(tb testing.TB, name, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", name, err)
	}

	w, err := xz.NewWriter(f)
	if err != nil {
		tb.Fatalf("xz writer: %v", err)
	}

	if _, err := w.Write([]byte(content)); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}

	if err := w.Close(); err != nil {
		tb.Fatalf("close xz: %v", err)
	}

	if err := f.Close(); err != nil {
		tb.Fatalf("close %s: %v", name, err)
	}

	return path
}
