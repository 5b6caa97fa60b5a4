package report

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are corporate-form markers stripped before matching, so
// "ACME TRANSPORTES LTDA" and "Acme Transportes" compare equal.
var legalSuffixes = []string{
	"LTDA", "LTDA.", "S.A.", "S.A", "S/A", "SA", "EIRELI", "EPP", "ME", "CIA", "CIA.",
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeClientText prepares a free-form client name for fuzzy
// comparison: diacritics stripped, legal-entity suffixes removed,
// whitespace collapsed, uppercased.
func NormalizeClientText(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	out = strings.ToUpper(strings.TrimSpace(out))

	fields := strings.Fields(out)
	for len(fields) > 0 {
		last := fields[len(fields)-1]
		if !isLegalSuffix(last) {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isLegalSuffix(word string) bool {
	for _, suffix := range legalSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}

// ClientMatches applies the containment heuristic: either normalized name
// contains the other. Deliberately fuzzy; see the diário validation notes.
func ClientMatches(requested, candidate string) bool {
	a := NormalizeClientText(requested)
	b := NormalizeClientText(candidate)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
