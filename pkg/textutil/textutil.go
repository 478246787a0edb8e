package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}

// CleanText drops non-printable characters, trims the string and collapses every
// run of whitespace into a single space.
func CleanText(text string) string {
	text = removeNonPrintable(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeName decodes HTML entities and folds case and whitespace so that two
// renderings of the same title compare equal.
func NormalizeName(name string) string {
	name = html.UnescapeString(name)
	name = strings.ToLower(name)
	return CleanText(name)
}

// Match is the result of BestMatch.
type Match struct {
	Index      int
	Similarity float64
}

// BestMatch finds the candidate closest to target. Exact matches win, then matches
// after NormalizeName, then the highest Jaro-Winkler similarity at or above threshold.
// Index is -1 when nothing qualifies.
func BestMatch(target string, candidates []string, threshold float64) Match {
	for i, c := range candidates {
		if c == target {
			return Match{Index: i, Similarity: 1}
		}
	}

	normalizedTarget := NormalizeName(target)
	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = NormalizeName(c)
		if normalized[i] == normalizedTarget {
			return Match{Index: i, Similarity: 1}
		}
	}

	best := Match{Index: -1}
	for i, c := range normalized {
		similarity := matchr.JaroWinkler(normalizedTarget, c, false)
		if similarity >= threshold && similarity > best.Similarity {
			best = Match{Index: i, Similarity: similarity}
		}
	}
	return best
}
