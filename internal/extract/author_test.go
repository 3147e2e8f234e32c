package extract

import "testing"

func TestCleanAuthorName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jane DoeJane Doe", "Jane Doe"},
		{"Jane Doe", "Jane Doe"},
		{"ABAB", "AB"},
		{"ABA", "ABA"},         // partial repetition is not a duplication
		{"AAAA", "AA"},         // longest repeating unit wins
		{"ABCABCABC", "ABC"},   // three copies collapse the same way
		{"A", "A"},             // a single rune cannot repeat
		{"", ""},
		{"  ", " "},            // two identical spaces are a repetition
		{"Dr. Lee, PhDDr. Lee, PhD", "Dr. Lee, PhD"},
	}
	for _, tc := range cases {
		if got := CleanAuthorName(tc.in); got != tc.want {
			t.Errorf("CleanAuthorName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
