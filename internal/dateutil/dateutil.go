// Package dateutil parses the calendar dates stored in documents and formats
// them for the page header and the base page.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// ErrInvalidDate indicates a stored date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat is the long form printed on documents, e.g. "1 March 2025".
const DefaultDateFormat = "D MMMM YYYY"

// StorageLayout is how dates are kept in documents and snapshots.
const StorageLayout = "2006-01-02"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"long":     DefaultDateFormat,
	"us":       "MMMM D, YYYY",
	"european": "DD/MM/YYYY",
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D. A preset name is accepted too.
// Use brackets to escape literal text: [Due] preserves "Due" literally.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// Parse reads a stored YYYY-MM-DD date as a calendar day in UTC, so the
// printed day never shifts with the local time zone. Empty input returns the
// zero time.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(StorageLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

// Format prints a stored date with a user-friendly format. Empty or invalid
// dates print as "".
func Format(stored, format string) string {
	t, err := Parse(stored)
	if err != nil || t.IsZero() {
		return ""
	}
	goFmt, err := ParseDateFormat(format)
	if err != nil {
		goFmt = "2 January 2006"
	}
	return t.Format(goFmt)
}

// ResolveDate handles the "today" keyword in snapshots: it returns now as a
// stored date. Any other value is validated and returned unchanged.
func ResolveDate(value string, now time.Time) (string, error) {
	if strings.EqualFold(strings.TrimSpace(value), "today") {
		return now.Format(StorageLayout), nil
	}
	if _, err := Parse(value); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
