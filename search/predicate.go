package search

import "strings"

// Mode selects how field values are matched against the query.
type Mode uint8

const (
	// Relative matches a value containing any query token as a substring,
	// or containing the whole original query as a substring. Containment
	// is case-sensitive. This is the default mode.
	Relative Mode = iota

	// Strict matches only exact equality with the original query.
	Strict
)

// Predicate reports whether a field value, rendered as text, matches.
type Predicate func(value string) bool

// NewPredicate compiles the query into a match predicate for the given
// mode. The predicate evaluates in process so containment stays
// case-sensitive regardless of the backing store's collation.
func NewPredicate(query string, mode Mode) Predicate {
	if mode == Strict {
		return func(value string) bool {
			return value == query
		}
	}

	tokens := Tokenize(query)
	return func(value string) bool {
		for _, tok := range tokens {
			if strings.Contains(value, tok.Text) {
				return true
			}
		}
		return strings.Contains(value, query)
	}
}
