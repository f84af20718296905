package jobimport

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var expireByPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	GenderAny    = "any"
	GenderMale   = "male"
	GenderFemale = "female"
)

// ValidateRow runs every rule and reports every failure, in a fixed order.
// There are no cross-field checks: min_age above max_age is accepted.
func ValidateRow(row RawRow) []string {
	errs := []string{}

	if row.Value(ColTitle) == "" {
		errs = append(errs, "Title is required")
	}

	switch exp := row.Value(ColExpireBy); {
	case exp == "":
		errs = append(errs, "Expiry date is required")
	case !expireByPattern.MatchString(exp):
		errs = append(errs, "Expiry date must be in YYYY-MM-DD format")
	default:
		if _, err := time.Parse("2006-01-02", exp); err != nil {
			errs = append(errs, "Expiry date is not a valid calendar date")
		}
	}

	if g := row.Value(ColGenderRequirement); g != "" {
		if _, ok := normalizeGender(g); !ok {
			errs = append(errs, "Gender requirement must be one of: any, male, female")
		}
	}

	numeric := []struct{ col, label string }{
		{ColMinAge, "Min age"},
		{ColMaxAge, "Max age"},
		{ColMinExperienceYears, "Min experience years"},
	}
	for _, n := range numeric {
		if v := row.Value(n.col); v != "" {
			if _, ok := parseNumber(v); !ok {
				errs = append(errs, n.label+" must be a number")
			}
		}
	}
	return errs
}

func normalizeGender(s string) (string, bool) {
	switch g := strings.ToLower(strings.TrimSpace(s)); g {
	case GenderAny, GenderMale, GenderFemale:
		return g, true
	case "":
		return GenderAny, true
	default:
		return "", false
	}
}

// parseNumber accepts decimal numbers only; "NaN", "Inf" and hex forms are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9') && c != '.' && c != '-' && c != '+' && c != 'e' && c != 'E' {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
