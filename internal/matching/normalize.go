package matching

import (
	"regexp"
	"strconv"
	"strings"
)

var numberToken = regexp.MustCompile(`\d+(?:\.\d+)?`)

// NormalizeVolume reduces a free-text volume ("440ml", "30 Litre", "44cl") to
// a bare numeric string comparable against variant titles. Millilitres are
// converted to centilitres; every other unit keeps its face value, so "30
// Litre" normalizes to "30" and comparison against Litre-precision titles is
// handled by the matcher's tolerance rules, not here. Input with no numeric
// token yields "0".
func NormalizeVolume(raw string) string {
	if raw == "" {
		return "0"
	}
	lowered := strings.ToLower(strings.TrimSpace(raw))
	token := numberToken.FindString(lowered)
	if token == "" {
		return "0"
	}
	val, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return "0"
	}
	if strings.Contains(lowered, "ml") {
		val = val / 10
	}
	return strings.TrimSuffix(strconv.FormatFloat(val, 'f', -1, 64), ".0")
}

// NormalizePack canonicalizes a free-text pack size. "1" is the sentinel for
// "not multi-packed": absent, empty, zero, and the usual OCR junk values all
// collapse to it. Anything else keeps its integer face with a trailing ".0"
// stripped.
func NormalizePack(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSuffix(cleaned, ".0")
	switch strings.ToLower(cleaned) {
	case "", "0", "nan", "none":
		return "1"
	}
	return cleaned
}
