package search

import (
	"strings"
	"unicode/utf8"
)

const maxQueryLength = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns user input into a LIKE pattern that matches it as a
// literal substring. Use it with `LIKE ? ESCAPE '\'`. An empty result means
// there is nothing to search for.
func ContainsPattern(input string) string {
	input = strings.TrimSpace(input)
	// maxQueryLength counts characters, not bytes.
	if utf8.RuneCountInString(input) > maxQueryLength {
		input = string([]rune(input)[:maxQueryLength])
	}
	if input == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(input) + "%"
}
