package extract

import "github.com/dlclark/regexp2"

// Feed markup sometimes renders the author's display name concatenated with
// itself with no separator ("Jane DoeJane Doe"). The pattern finds the
// longest unit X such that the whole string is X repeated two or more times;
// anything short of a full-string repetition is left alone. Backreferences
// are outside RE2, hence regexp2.
var authorDupRe = regexp2.MustCompile(`^(.+)\1+$`, regexp2.None)

// CleanAuthorName collapses a fully self-repeated author string to a single
// copy of the repeating unit, and returns anything else verbatim.
func CleanAuthorName(s string) string {
	m, err := authorDupRe.FindStringMatch(s)
	if err != nil || m == nil {
		return s
	}
	return m.GroupByNumber(1).String()
}
