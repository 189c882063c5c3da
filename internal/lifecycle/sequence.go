package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
)

// Number prefixes.
const (
	QuotePrefix = "Q"
	JobPrefix   = "J"
)

// NextSequence returns the number following last, formatted PREFIX-NNNN with
// at least four digits. An empty last starts the sequence at 0001.
func NextSequence(prefix, last string) (string, error) {
	if last == "" {
		return FormatSequence(prefix, 1), nil
	}
	suffix, ok := strings.CutPrefix(last, prefix+"-")
	if !ok {
		return "", fmt.Errorf("sequence %q does not have prefix %s-", last, prefix)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return "", fmt.Errorf("sequence %q has a non-numeric suffix", last)
	}
	return FormatSequence(prefix, n+1), nil
}

// FormatSequence renders n with the prefix, zero-padded to four digits.
func FormatSequence(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// SequenceLess orders sequence numbers numerically: a shorter suffix sorts
// first, equal lengths compare lexically. Q-9999 sorts before Q-10000.
func SequenceLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
