package sources

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// priceRe matches the first numeric amount in a storefront display string,
// e.g. "Rs. 1,545" or "PKR 249.50"
var priceRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?`)

// ExtractPrice pulls a numeric price out of a storefront display string.
// Thousands separators are stripped; a string with no digits is an error.
func ExtractPrice(display string) (float64, error) {
	m := priceRe.FindString(display)
	if m == "" {
		return 0, fmt.Errorf("no price in %q", display)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", m, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive price in %q", display)
	}
	return v, nil
}

// NormalizeName lowercases and collapses whitespace for duplicate detection
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
