package wikitext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// span returns the length of the run of c starting at start, capped at max
// when max is positive.
func span(s string, c byte, start, max int) int {
	n := 0
	for i := start; i < len(s) && s[i] == c; i++ {
		n++
		if max > 0 && n == max {
			break
		}
	}
	return n
}

// spanAny returns the length of the run of bytes in set starting at start.
func spanAny(s, set string, start int) int {
	n := 0
	for i := start; i < len(s) && strings.IndexByte(set, s[i]) >= 0; i++ {
		n++
	}
	return n
}

// spanBack returns the length of the run of bytes in set ending just before end.
func spanBack(s, set string, end int) int {
	n := 0
	for i := end - 1; i >= 0 && strings.IndexByte(set, s[i]) >= 0; i-- {
		n++
	}
	return n
}

// indexFold returns the index of the first case-insensitive match of sub in
// s, or -1.
func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		j := strings.IndexByte(s[i:], sub[0])
		if j < 0 {
			return -1
		}
		i += j
		if hasPrefixFold(s[i:], sub) {
			return i
		}
	}
	return -1
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// NormalizeName canonicalizes a page or template name the way wiki titles are
// compared: underscores become spaces, runs of whitespace collapse to a single
// space, the ends are trimmed and the first letter is upper-cased.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
