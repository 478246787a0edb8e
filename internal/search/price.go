package search

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCents converts a decimal amount such as "1,250.5" or "12.999" into integer cents
// without going through a float. The third decimal rounds half up, anything past it is ignored.
func ParseCents(amount string) (int64, bool) {
	amount = strings.TrimSpace(amount)
	amount = strings.ReplaceAll(amount, ",", "")
	if amount == "" {
		return 0, false
	}

	negative := false
	if amount[0] == '-' {
		negative = true
		amount = amount[1:]
	}
	if amount == "" || amount == "." {
		return 0, false
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, false
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}

	frac += "000"
	cents := int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		cents++
	}

	total := dollars*100 + cents
	if negative {
		total = -total
	}
	return total, true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatCents renders cents for display, "$12.99" for USD and "12.99 EUR" otherwise.
// Whole dollar amounts drop the fraction: "$1250".
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	amount := strconv.FormatInt(cents/100, 10)
	if cents%100 != 0 {
		amount = fmt.Sprintf("%s.%02d", amount, cents%100)
	}

	if currency == "" || currency == "USD" {
		return sign + "$" + amount
	}
	return fmt.Sprintf("%s%s %s", sign, amount, currency)
}
