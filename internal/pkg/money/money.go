package money

import (
	"math"
	"strconv"
)

// display symbols for the currencies the storefront settles in; anything
// else falls back to the ISO code as prefix
var currencySymbols = map[string]string{
	"INR": "₹",
	"IDR": "Rp",
	"USD": "$",
	"EUR": "€",
}

// Format renders an amount for display with thousands separators.
// Example: Format(5200, "INR") -> "₹5,200"
func Format(amount float64, currency string) string {
	rounded := int64(math.Round(amount))

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	formatted := addThousandsSeparator(strconv.FormatInt(rounded, 10), ',')

	prefix, ok := currencySymbols[currency]
	if !ok {
		prefix = currency + " "
	}

	if negative {
		return "-" + prefix + formatted
	}

	return prefix + formatted
}

func addThousandsSeparator(s string, sep byte) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1

	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep
			j--
		}
	}

	return string(result)
}
