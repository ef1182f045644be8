package utils

import (
	"regexp"
	"strings"

	"luckydraw/domain/entities"
)

var (
	phoneCleaner  = regexp.MustCompile(`[\s\-]`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^09\d{8,9}$`),
		regexp.MustCompile(`^9\d{8,9}$`),
		regexp.MustCompile(`^959\d{8,9}$`),
		regexp.MustCompile(`^\+959\d{8,9}$`),
	}
)

// NormalizePhone converts any accepted Myanmar mobile format to 09XXXXXXXXX
func NormalizePhone(raw string) (string, error) {
	cleaned := phoneCleaner.ReplaceAllString(strings.TrimSpace(raw), "")

	matched := false
	for _, p := range phonePatterns {
		if p.MatchString(cleaned) {
			matched = true
			break
		}
	}
	if !matched {
		return "", entities.ErrInvalidPhone
	}

	switch {
	case strings.HasPrefix(cleaned, "+959"):
		return "09" + cleaned[4:], nil
	case strings.HasPrefix(cleaned, "959"):
		return "09" + cleaned[3:], nil
	case strings.HasPrefix(cleaned, "09"):
		return cleaned, nil
	default:
		return "0" + cleaned, nil
	}
}

// NormalizePayoutPhone is NormalizePhone restricted to the 11-digit wallet numbers used for payouts
func NormalizePayoutPhone(raw string) (string, error) {
	phone, err := NormalizePhone(raw)
	if err != nil {
		return "", err
	}
	if len(phone) != 11 {
		return "", entities.ErrInvalidPhone
	}
	return phone, nil
}

// MaskPhone hides the middle digits, keeping the operator prefix and last three digits
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return phone
	}
	return phone[:4] + strings.Repeat("*", len(phone)-7) + phone[len(phone)-3:]
}
