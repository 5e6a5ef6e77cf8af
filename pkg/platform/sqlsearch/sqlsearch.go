// Package sqlsearch builds user search terms for LIKE patterns.
package sqlsearch

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE/ILIKE pattern that
// declares ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
