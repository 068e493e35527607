package collection

import (
	"strings"
	"unicode"
)

// Preview lengths, in characters.
const (
	SamplePreviewChars = 140
	MatchPreviewChars  = 1200
)

// maxBoundaryScan is how far back Preview looks for a word boundary.
const maxBoundaryScan = 10

// Preview returns the first maxChars characters of text on one line,
// cut at a word boundary when one is close, with "..." when truncated.
func Preview(text string, maxChars int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if maxChars <= 0 || len(runes) <= maxChars {
		return string(runes)
	}

	end := adjustToWordBoundary(runes, maxChars)
	return strings.TrimRightFunc(string(runes[:end]), isSeparator) + "..."
}

// adjustToWordBoundary moves pos back to just after the nearest separator.
func adjustToWordBoundary(runes []rune, pos int) int {
	for i := pos; i > 0 && i >= pos-maxBoundaryScan; i-- {
		if isSeparator(runes[i]) {
			return i
		}
	}
	return pos
}

func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '。', '，', '、', '；', '：', '！', '？', '…':
		return true
	}
	return false
}
