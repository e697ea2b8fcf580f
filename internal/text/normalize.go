// Package text holds the string normalization shared by inventory loading and
// tokenization. Every segment and every input string is compared in NFC.
package text

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// NFC returns s in Unicode Normalization Form C.
func NFC(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// RuneLen returns the number of code points in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Normalize prepares a transcription typed on the command line.
// It normalizes line endings to \n, trims surrounding whitespace, rejects empty
// or whitespace-only input and returns the NFC form.
func Normalize(s string) (string, error) {
	// Normalize line endings: CRLF → LF, then bare CR → LF.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyText
	}

	return NFC(s), nil
}

// TrimLine strips a trailing line terminator (LF, CRLF or CR) and nothing else.
// Interior and leading whitespace is kept because it is tokenizable input.
func TrimLine(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// Split returns the code points of the NFC form of s, one string each. Bytes
// that are not valid UTF-8 come back unchanged as single-byte strings, so
// joining the result reproduces NFC(s) byte for byte.
func Split(s string) []string {
	out := make([]string, 0, len(s))
	for len(s) > 0 {
		n := validPrefix(s)
		if n == 0 {
			out = append(out, s[:1])
			s = s[1:]
			continue
		}
		for _, r := range NFC(s[:n]) {
			out = append(out, string(r))
		}
		s = s[n:]
	}
	return out
}

// validPrefix returns the length of the longest well-formed UTF-8 prefix of s.
func validPrefix(s string) int {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		i += size
	}
	return i
}
