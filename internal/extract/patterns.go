package extract

import (
	"regexp"
	"strings"
)

var (
	// leadingDateRe matches the ISO-like date that starts every transaction row.
	leadingDateRe = regexp.MustCompile(`^\s*(20\d{2}[-/]\d{2}[-/]\d{2})\b`)

	// amountRe matches a currency-formatted amount: optional R prefix,
	// comma thousands separators, always two decimals.
	amountRe = regexp.MustCompile(`(?:R\s?)?-?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\b`)

	// nameLineRe matches "Surname, Firstname [Middle ...]".
	nameLineRe = regexp.MustCompile(`^[A-Za-z][A-Za-z'\-]*(?:\s+[A-Za-z][A-Za-z'\-]*)*,\s*[A-Za-z][A-Za-z'.\-]*(?:\s+[A-Za-z][A-Za-z'.\-]*)*$`)
)

// looksLikeName applies the loose test used inside the name band: a comma,
// a handful of words and none of the excluded keywords.
func looksLikeName(text string, keywords []string) bool {
	if !strings.Contains(text, ",") {
		return false
	}
	if len(strings.Fields(text)) > maxNameWords {
		return false
	}
	return !containsKeyword(text, keywords)
}

// isNameLine is the stricter test used when scanning free lines, where
// there is no table to anchor the search.
func isNameLine(text string, keywords []string) bool {
	text = strings.TrimSpace(text)
	return nameLineRe.MatchString(text) && looksLikeName(text, keywords)
}

func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// leadingDate returns the date token at the start of s, if any.
func leadingDate(s string) (string, bool) {
	m := leadingDateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// grossFromAmounts picks the gross figure from the amounts printed on a
// transaction line. The report prints Gross Remuneration then Nett Pay as
// the last two figures, so gross is second to last.
func grossFromAmounts(amounts []string) (string, bool) {
	switch len(amounts) {
	case 0:
		return "", false
	case 1:
		return amounts[0], true
	default:
		return amounts[len(amounts)-2], true
	}
}
