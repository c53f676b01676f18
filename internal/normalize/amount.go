// Package normalize canonicalizes the locale-ambiguous values the two feeds
// emit: monetary amounts and customer email identities.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a numeric string that may carry currency symbols,
// whitespace, and either Dutch ("1.234,56") or US ("1,234.56") separator
// conventions. Whichever of ',' and '.' occurs last is taken as the decimal
// separator; the other symbol is stripped as a thousands separator. When only
// one separator type is present it is treated as a thousands separator. Empty
// or unparseable input yields zero, never an error, so a malformed row cannot
// abort a run.
func ParseAmount(s string) decimal.Decimal {
	cleaned := stripCurrency(s)
	if cleaned == "" {
		return decimal.Zero
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// Dutch style: '.' groups thousands, ',' is the decimal mark.
			cleaned = withDecimalMark(cleaned, ',')
		} else {
			// US style: ',' groups thousands, '.' is the decimal mark.
			cleaned = withDecimalMark(cleaned, '.')
		}
	case lastComma >= 0:
		// Single separator type: treated as thousands grouping. A lone comma
		// meant as a decimal mark ("12,5") is mis-read as 125; accepted
		// limitation of locale-free parsing, pinned by tests.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case lastDot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// stripCurrency keeps digits, separators, and a leading sign.
func stripCurrency(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// withDecimalMark removes every separator except the last occurrence of dec,
// which becomes the canonical '.' decimal point.
func withDecimalMark(s string, dec rune) string {
	other := "."
	if dec == '.' {
		other = ","
	}
	s = strings.ReplaceAll(s, other, "")
	i := strings.LastIndex(s, string(dec))
	head := strings.ReplaceAll(s[:i], string(dec), "")
	return head + "." + s[i+1:]
}
