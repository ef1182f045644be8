package utils

import (
	"strconv"
	"strings"
)

// FormatKyat renders an amount with thousands separators and the MMK unit, e.g. "10,000 Ks"
func FormatKyat(amount int64) string {
	return FormatThousands(amount) + " Ks"
}

// FormatThousands inserts commas every three digits
func FormatThousands(value int64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}

	digits := strconv.FormatInt(value, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// ParseAmount parses a user-entered amount, tolerating commas, spaces and a "Ks" suffix
func ParseAmount(raw string) (int64, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.TrimSuffix(cleaned, "ks")
	cleaned = strings.NewReplacer(",", "", " ", "", "_", "").Replace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
