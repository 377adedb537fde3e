package scoring

import (
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("```sql|```")

// StripCodeFences removes Markdown code-fence markers around generated SQL.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFenceRe.ReplaceAllString(s, ""))
}

// NormalizeSQL lowercases, drops a trailing semicolon and collapses
// whitespace runs so that formatting differences do not fail the comparison.
func NormalizeSQL(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ";")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CompareSQL reports whether two SQL statements are textually equivalent
// after normalization. Semantic equivalence is out of scope: two different
// but equivalent query plans still compare unequal.
func CompareSQL(a, b string) bool {
	return NormalizeSQL(a) == NormalizeSQL(b)
}
