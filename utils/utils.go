// Package utils provides small helpers shared across the library.
package utils

import (
	"encoding/base64"
	"unicode/utf8"
)

// ContainsNonASCII reports whether s holds any byte outside the
// US-ASCII range.
func ContainsNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// EncodeRFC2047 encodes a string as an RFC 2047 base64 encoded-word.
func EncodeRFC2047(s string) string {
	return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
}
