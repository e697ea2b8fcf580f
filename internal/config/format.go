package config

import (
	"fmt"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// NormalizeFormat canonicalizes an output format name. Empty selects text.
func NormalizeFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON:
		return format, nil
	case "txt", "plain", "table":
		return FormatText, nil
	default:
		return "", fmt.Errorf(
			"invalid format %q (expected %s|%s)",
			raw,
			FormatText,
			FormatJSON,
		)
	}
}
