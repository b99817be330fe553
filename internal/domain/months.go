package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MonthNames is the fixed lookup between numeric months and the names the
// remote API stores. Index 0 is January.
var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

const (
	minYear = 1900
	maxYear = 9999
)

// ResolveMonth validates (year, month) and returns the canonical month name.
func ResolveMonth(year, month int) (string, error) {
	if year < minYear || year > maxYear {
		return "", &ErrValidation{Field: "year", Message: fmt.Sprintf("year must be between %d and %d", minYear, maxYear)}
	}
	if month < 1 || month > 12 {
		return "", &ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
	}
	return MonthNames[month-1], nil
}

// MonthNumber is the reverse lookup of MonthNames. Matching is exact.
func MonthNumber(name string) (int, bool) {
	for i, n := range MonthNames {
		if n == name {
			return i + 1, true
		}
	}
	return 0, false
}

// ParseYearMonth parses the "YYYY-MM" value of a month picker.
func ParseYearMonth(s string) (year, month int, err error) {
	s = strings.TrimSpace(s)
	y, m, ok := strings.Cut(s, "-")
	if !ok || len(y) != 4 || len(m) != 2 {
		return 0, 0, &ErrValidation{Field: "month", Message: "please select a valid month and year (YYYY-MM)"}
	}
	year, err = strconv.Atoi(y)
	if err != nil {
		return 0, 0, &ErrValidation{Field: "year", Message: "year must be numeric"}
	}
	month, err = strconv.Atoi(m)
	if err != nil {
		return 0, 0, &ErrValidation{Field: "month", Message: "month must be numeric"}
	}
	if _, err := ResolveMonth(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}
