package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatICal Format = "ical"
)

// FormatForFile picks the format from the file extension. Anything that is
// not ".csv" is written as iCalendar.
func FormatForFile(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV
	}
	return FormatICal
}

// ParseFormat resolves an explicitly named format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "ical", "ics":
		return FormatICal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}
