package middleware

import "strings"

// MaskSecret маскирует токены и секреты в логах (в prod не светить полностью).
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "***"
}
