package ticket

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims s, collapses internal whitespace runs and applies NFC.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NormalizeEmail trims and NFC-normalizes an address. Case is preserved
// because the local part is case-sensitive in principle.
func NormalizeEmail(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// FoldFlag returns the case-folded, trimmed form of a yes/no cell.
// A new Caser is created per call; Casers are not safe for concurrent use.
func FoldFlag(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
