package processor

import (
	"regexp"
)

var (
	groupedNumberPattern = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b`)
	plainNumberPattern   = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

	// UP / MB / DN each followed by its value, in legend order
	labelPattern = regexp.MustCompile(`(?i)UP[^\d-]*([\d.,]+)[\s\S]*?MB[^\d-]*([\d.,]+)[\s\S]*?DN[^\d-]*([\d.,]+)`)

	bandKeywordPattern = regexp.MustCompile(`(?i)(BOLL|Bollinger|布林)`)
)

// ExtractNumeric returns the most plausible number in text. A
// thousands-grouped token wins over any plain number.
func ExtractNumeric(text string) (string, bool) {
	if m := groupedNumberPattern.FindString(text); m != "" {
		return m, true
	}
	if m := plainNumberPattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// ExtractTriplet reads upper/middle/lower from whole-region OCR text.
//
// The UP/MB/DN markers are tried first. Without them, text mentioning the
// indicator by name yields its first three grouped numbers in order; this
// does not verify that those numbers belong to the bands.
func ExtractTriplet(text string) (Reading, bool) {
	if m := labelPattern.FindStringSubmatch(text); m != nil {
		return Reading{Upper: m[1], Middle: m[2], Lower: m[3]}, true
	}

	if bandKeywordPattern.MatchString(text) {
		grouped := groupedNumberPattern.FindAllString(text, 3)
		if len(grouped) == 3 {
			return Reading{Upper: grouped[0], Middle: grouped[1], Lower: grouped[2]}, true
		}
	}

	return Reading{}, false
}
