package domain

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const (
	CategoryMinLen       = 2
	CategoryMaxLen       = 30
	DescriptionMaxLen    = 150
	passwordStrongLength = 8
)

// BillPalette is the set of display colours a new bill is tagged with when
// the user does not pick one.
var BillPalette = []string{
	"#818cf8", "#f472b6", "#34d399", "#fbbf24",
	"#60a5fa", "#c084fc", "#f87171", "#2dd4bf",
}

// CleanCategory trims and NFC-normalises a category label and checks it
// against the label rules: 2 to 30 characters, letters of any script, digits
// and whitespace only.
func CleanCategory(label string) (string, error) {
	clean := norm.NFC.String(strings.TrimSpace(label))

	n := utf8.RuneCountInString(clean)
	if n < CategoryMinLen || n > CategoryMaxLen {
		return "", &ErrValidation{Field: "type", Message: "category name must be between 2 and 30 characters"}
	}

	for _, r := range clean {
		if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		return "", &ErrValidation{Field: "type", Message: "invalid characters: use only letters and numbers (e.g. Food, Gym)"}
	}
	return clean, nil
}

// ParseAmount parses user input into a non-negative amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ErrValidation{Field: "amount", Message: "amount is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ErrValidation{Field: "amount", Message: "amount must be a number"}
	}
	if d.IsNegative() {
		return decimal.Zero, &ErrValidation{Field: "amount", Message: "amount must not be negative"}
	}
	return d, nil
}

// ValidateDescription trims a bill description and checks its length.
func ValidateDescription(s string) (string, error) {
	clean := strings.TrimSpace(s)
	if utf8.RuneCountInString(clean) > DescriptionMaxLen {
		return "", &ErrValidation{Field: "description", Message: "description must be at most 150 characters"}
	}
	return clean, nil
}

// ValidateColor accepts "", "#rgb" and "#rrggbb".
func ValidateColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if s[0] != '#' || (len(s) != 4 && len(s) != 7) {
		return "", &ErrValidation{Field: "color", Message: "color must be a hex value like #60a5fa"}
	}
	for _, r := range s[1:] {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return "", &ErrValidation{Field: "color", Message: "color must be a hex value like #60a5fa"}
		}
	}
	return strings.ToLower(s), nil
}

// PickColor returns a palette colour for a bill created without one.
func PickColor() string {
	return BillPalette[rand.Intn(len(BillPalette))]
}

// BuildBillRecord validates in and produces the wire record for monthID.
func BuildBillRecord(monthID int64, in BillInput) (BillRecord, error) {
	if monthID <= 0 {
		return BillRecord{}, &ErrValidation{Field: "financialMonthId", Message: "bill must belong to a financial month"}
	}
	category, err := CleanCategory(in.Type)
	if err != nil {
		return BillRecord{}, err
	}
	if in.Amount.IsNegative() {
		return BillRecord{}, &ErrValidation{Field: "amount", Message: "amount must not be negative"}
	}
	description, err := ValidateDescription(in.Description)
	if err != nil {
		return BillRecord{}, err
	}
	color, err := ValidateColor(in.Color)
	if err != nil {
		return BillRecord{}, err
	}
	if color == "" {
		color = PickColor()
	}

	return BillRecord{
		FinancialMonthID: monthID,
		Type:             category,
		Amount:           in.Amount,
		Description:      description,
		Color:            color,
	}, nil
}

// BuildMonthRecord validates in and produces the wire record.
func BuildMonthRecord(in MonthInput) (MonthRecord, error) {
	name, err := ResolveMonth(in.Year, in.Month)
	if err != nil {
		return MonthRecord{}, err
	}
	if in.TotalIncome.IsNegative() {
		return MonthRecord{}, &ErrValidation{Field: "totalIncome", Message: "income must not be negative"}
	}
	return MonthRecord{Year: in.Year, Month: name, TotalIncome: in.TotalIncome}, nil
}

// PasswordStrength scores a password from 0 to 5: one point each for length
// of at least 8, an upper-case letter, a lower-case letter, a digit and a
// symbol.
func PasswordStrength(pw string) (int, string) {
	score := 0
	if utf8.RuneCountInString(pw) >= passwordStrongLength {
		score++
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			score++
		}
	}

	switch {
	case score <= 2:
		return score, "weak"
	case score <= 3:
		return score, "fair"
	case score <= 4:
		return score, "good"
	default:
		return score, "strong"
	}
}
