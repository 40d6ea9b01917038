package book

import "strings"

// mojibakeQuote is a right single quote (U+2019) whose UTF-8 bytes were decoded
// as Windows-1252 somewhere upstream of the input file.
const mojibakeQuote = "â€™"

// Normalize turns free text into the catalog query form: lower-cased, spaces
// joined with '+', apostrophes and the mis-encoded right quote removed.
//
// Normalize is not a URL encoder. Characters like '&' or '#' pass through
// unchanged.
func Normalize(text string) string {
	out := strings.ToLower(text)
	out = strings.ReplaceAll(out, " ", "+")
	out = strings.ReplaceAll(out, "'", "")
	// removing one sequence can join the halves of another
	for strings.Contains(out, mojibakeQuote) {
		out = strings.ReplaceAll(out, mojibakeQuote, "")
	}
	return out
}
