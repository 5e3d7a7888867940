package golang

import (
	"strings"
	"unicode"
)

var commonInitialisms = map[string]bool{
	"API":   true,
	"ASCII": true,
	"CPU":   true,
	"CSS":   true,
	"DNS":   true,
	"EOF":   true,
	"GUID":  true,
	"HTML":  true,
	"HTTP":  true,
	"HTTPS": true,
	"ID":    true,
	"IP":    true,
	"JSON":  true,
	"QPS":   true,
	"RAM":   true,
	"RPC":   true,
	"SLA":   true,
	"SMTP":  true,
	"SQL":   true,
	"SSH":   true,
	"TCP":   true,
	"TLS":   true,
	"TTL":   true,
	"UDP":   true,
	"UI":    true,
	"UID":   true,
	"UUID":  true,
	"URI":   true,
	"URL":   true,
	"UTF8":  true,
	"VM":    true,
	"XML":   true,
}

func PascalCase(s string) string {
	var result strings.Builder
	for _, word := range splitWords(s) {
		upper := strings.ToUpper(word)
		if commonInitialisms[upper] {
			result.WriteString(upper)
		} else {
			result.WriteString(capitalize(word))
		}
	}
	return result.String()
}

// splitWords splits on separators, on lower-to-upper case changes and on
// any other character that cannot appear in an identifier.
func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	var prev rune
	for i, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			prev = r
			continue
		}

		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			flush()
		}

		current.WriteRune(r)
		prev = r
	}
	flush()

	return words
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func ToGoIdentifier(s string) string {
	result := PascalCase(s)
	if len(result) == 0 {
		return "X"
	}
	first := rune(result[0])
	if unicode.IsDigit(first) {
		return "X" + result
	}
	return result
}

// TestFuncName names the generated contract test of an endpoint, e.g.
// "user_show" -> "TestUserShowContract".
func TestFuncName(endpoint string) string {
	return "Test" + ToGoIdentifier(endpoint) + "Contract"
}
