// Package tokenizer splits IPA transcriptions into phonetic segments.
// The implementation is a greedy longest-match scan over code points that
// prefers the language inventory, then the universal fallback, and finally
// passes unknown code points through one at a time.
package tokenizer

// Tokenizer splits an IPA transcription into segments.
type Tokenizer interface {
	// Tokenize returns the segments of text for language. An empty or unknown
	// language selects the fallback inventory. It never fails.
	Tokenize(text, language string) []string
}
