package assist

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/andrewpaige1/memocards-api/cards"
)

var (
	trailingSpace = regexp.MustCompile(`(?m)[\t ]+$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	punctuation   = regexp.MustCompile(`[.,;:!?()\[\]{}<>|/\\]`)
	tokenShape    = regexp.MustCompile(`^[a-z0-9-]+$`)
)

var stopWords = map[string]struct{}{
	"avec": {}, "dans": {}, "pour": {}, "plus": {}, "sans": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "your": {},
	"about": {}, "comme": {}, "mais": {}, "donc": {}, "car": {},
}

const maxLocalTags = 6

// SimpleFormat normalizes line endings, strips trailing whitespace on every
// line, collapses three or more newlines into one blank line and trims.
func SimpleFormat(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = trailingSpace.ReplaceAllString(content, "")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// ExtractTags suggests up to six keywords: folded tokens of 4 to 24 chars,
// stop words removed, most frequent first.
func ExtractTags(content string) []string {
	text := punctuation.ReplaceAllString(SimpleFormat(content), " ")

	counts := make(map[string]int)
	for _, token := range strings.Fields(text) {
		token = cards.Fold(token)
		if n := len([]rune(token)); n < 4 || n > 24 {
			continue
		}
		if !tokenShape.MatchString(token) {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		counts[token]++
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	c := collate.New(language.French)
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if n := c.CompareString(a, b); n != 0 {
			return n < 0
		}
		return a < b
	})
	if len(tokens) > maxLocalTags {
		tokens = tokens[:maxLocalTags]
	}
	return tokens
}
