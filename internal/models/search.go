package models

import "strings"

// Tokenize lowercases a search query and splits it on whitespace.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// MatchAll reports whether every token is a substring of haystack.
// haystack must already be lowercased.
func MatchAll(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}
