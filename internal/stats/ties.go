package stats

import (
	"fmt"
	"regexp"
	"slices"
)

// TieCount is one tied symbol sequence and how often it occurred.
type TieCount struct {
	Sequence string `json:"sequence"`
	Count    int    `json:"count"`
}

// Ties counts tie-bar sequences (U+0361, U+035C) in every transcription,
// including context code points on each side. Results are ordered by
// descending count; ties keep first-seen order.
func Ties(records []Record, context int) ([]TieCount, error) {
	if context < 0 {
		return nil, fmt.Errorf("context must not be negative, got %d", context)
	}

	pattern, err := regexp.Compile(fmt.Sprintf(`.{%d}[\x{0361}\x{035C}].{%d}`, context, context))
	if err != nil {
		return nil, fmt.Errorf("compile tie pattern: %w", err)
	}

	var order []string
	counts := make(map[string]int)
	for _, rec := range records {
		for _, m := range pattern.FindAllString(rec.Transcription, -1) {
			if _, ok := counts[m]; !ok {
				order = append(order, m)
			}
			counts[m]++
		}
	}

	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })

	out := make([]TieCount, len(order))
	for i, seq := range order {
		out[i] = TieCount{Sequence: seq, Count: counts[seq]}
	}
	return out, nil
}
