package util

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// NormalizePhone reduces a provider address like "919876543210@c.us" or a
// user-entered number like "+91 98765-43210" to "+919876543210". Returns
// the empty string when no digits remain.
func NormalizePhone(raw string) string {
	s := raw
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// ProviderAddress converts a normalized phone number to the chat address
// the bridge expects.
func ProviderAddress(phone string) string {
	return strings.TrimPrefix(phone, "+") + "@c.us"
}

func IsValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// MaskPhone keeps the last four digits for logs and audit descriptions.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
