package sheet

import (
	"fmt"
	"strings"
)

// Default header names. Matching is exact and case-sensitive.
const (
	DefaultEmailHeader    = "Email"
	DefaultNameHeader     = "Full Name"
	DefaultVerifiedHeader = "Verified"
	DefaultSentHeader     = "Sent"
)

// HeaderNames configures the header text of each required column.
// Form tools tend to use the full question text as the header, so every
// name is overridable.
type HeaderNames struct {
	Email    string `yaml:"email" json:"email"`
	Name     string `yaml:"name" json:"name"`
	Verified string `yaml:"verified" json:"verified"`
	Sent     string `yaml:"sent" json:"sent"`
}

// DefaultHeaderNames returns the built-in header names.
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{
		Email:    DefaultEmailHeader,
		Name:     DefaultNameHeader,
		Verified: DefaultVerifiedHeader,
		Sent:     DefaultSentHeader,
	}
}

// withDefaults fills empty names from DefaultHeaderNames.
func (h HeaderNames) withDefaults() HeaderNames {
	d := DefaultHeaderNames()
	if h.Email == "" {
		h.Email = d.Email
	}
	if h.Name == "" {
		h.Name = d.Name
	}
	if h.Verified == "" {
		h.Verified = d.Verified
	}
	if h.Sent == "" {
		h.Sent = d.Sent
	}
	return h
}

// Columns is the header mapping for one reconciliation run.
type Columns struct {
	Email    int
	Name     int
	Verified int
	Sent     int

	// SentMissing is true when the Sent column does not exist yet. Sent then
	// points at the index the column will occupy once appended.
	SentMissing bool

	// SentHeader is the header text to append when SentMissing is set.
	SentHeader string
}

// MissingColumnsError reports required headers absent from the header row.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns missing from header row: %s", strings.Join(e.Missing, ", "))
}

// DiscoverColumns maps the required headers to column positions.
//
// Email, Name and Verified must be present; otherwise a *MissingColumnsError
// listing every absent header is returned. A missing Sent column is not an
// error: Columns.SentMissing is set and Sent is len(headers).
//
// When a header appears more than once, the first occurrence wins.
func DiscoverColumns(headers []string, names HeaderNames) (Columns, error) {
	names = names.withDefaults()

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	cols := Columns{
		Email:      lookup(names.Email),
		Name:       lookup(names.Name),
		Verified:   lookup(names.Verified),
		SentHeader: names.Sent,
	}
	if len(missing) > 0 {
		return Columns{}, &MissingColumnsError{Missing: missing}
	}

	if i, ok := index[names.Sent]; ok {
		cols.Sent = i
	} else {
		cols.Sent = len(headers)
		cols.SentMissing = true
	}
	return cols, nil
}
