package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", NormalizeText("  Ada   Lovelace \t"))
	// "e" + combining acute composes to U+00E9 under NFC.
	assert.Equal(t, "Ren\u00e9e", NormalizeText("Rene\u0301e"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Ada@Example.com", NormalizeEmail("  Ada@Example.com\n"))
}

func TestFoldFlag(t *testing.T) {
	for _, in := range []string{"yes", "YES", " Yes ", "yEs\t"} {
		assert.Equal(t, "yes", FoldFlag(in), "input %q", in)
	}
	assert.Equal(t, "no", FoldFlag(" NO"))
	assert.Equal(t, "", FoldFlag("   "))
}

func TestSummary_NotScanned(t *testing.T) {
	assert.Equal(t, int64(3), Summary{TicketsSent: 5, ValidScans: 2}.NotScanned())
	assert.Equal(t, int64(0), Summary{TicketsSent: 1, ValidScans: 2}.NotScanned())
}
