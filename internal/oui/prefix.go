// Package oui maps hardware addresses to manufacturer names.
package oui

import (
	"strings"
)

// Prefix returns the organisationally unique identifier of mac as six
// upper-case hex digits. Separators may be ':', '-' or '.', or absent.
func Prefix(mac string) (string, bool) {
	var b strings.Builder
	for _, r := range mac {
		switch {
		case r == ':' || r == '-' || r == '.':
			continue
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		default:
			return "", false
		}
		if b.Len() == 6 {
			break
		}
	}
	hex := strings.ToUpper(b.String())
	if len(hex) < 6 {
		return "", false
	}
	return hex[:6], true
}

// coloned renders a prefix as "aa:bb:cc".
func coloned(prefix string) string {
	return strings.ToLower(prefix[0:2] + ":" + prefix[2:4] + ":" + prefix[4:6])
}
