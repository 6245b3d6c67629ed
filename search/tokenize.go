// Package search tokenizes query strings and builds the match predicates
// and id sets behind table search.
package search

import "strings"

// Token is one unit of a query: a bare word or a quoted phrase.
type Token struct {
	Text   string
	Phrase bool
}

// Tokenize scans the query left to right. A double-quoted run becomes one
// token retaining its internal spaces; elsewhere, whitespace splits tokens.
// A quote without a closing partner is an ordinary character of a bare
// word. The empty query yields no tokens.
func Tokenize(query string) []Token {
	var tokens []Token

	i := 0
	for i < len(query) {
		// Skip separators.
		if query[i] == ' ' || query[i] == '\t' || query[i] == '\n' {
			i++
			continue
		}

		// Quoted phrase, if the quote is closed.
		if query[i] == '"' {
			if end := strings.IndexByte(query[i+1:], '"'); end >= 0 {
				tokens = append(tokens, Token{Text: query[i+1 : i+1+end], Phrase: true})
				i += end + 2
				continue
			}
		}

		// Bare word up to the next separator.
		start := i
		for i < len(query) && query[i] != ' ' && query[i] != '\t' && query[i] != '\n' {
			i++
		}
		tokens = append(tokens, Token{Text: query[start:i]})
	}

	return tokens
}
