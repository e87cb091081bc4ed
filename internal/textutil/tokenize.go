package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// stopWords are English filler terms plus course-domain noise words that carry
// no topical signal in video titles.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "been": {}, "but": {}, "by": {}, "call": {}, "come": {},
	"could": {}, "day": {}, "did": {}, "do": {}, "down": {}, "each": {},
	"find": {}, "first": {}, "for": {}, "from": {}, "get": {}, "go": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "him": {},
	"how": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "like": {}, "made": {}, "make": {}, "many": {}, "may": {},
	"more": {}, "my": {}, "no": {}, "now": {}, "of": {}, "on": {},
	"out": {}, "said": {}, "she": {}, "sit": {}, "so": {}, "some": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"these": {}, "they": {}, "this": {}, "time": {}, "to": {}, "two": {},
	"up": {}, "was": {}, "way": {}, "what": {}, "which": {}, "who": {},
	"will": {}, "with": {}, "would": {},
	"video":    {},
	"videos":   {},
	"part":     {},
	"episode":  {},
	"tutorial": {},
	"lesson":   {},
	"chapter":  {},
	"section":  {},
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize folds diacritics and lowercases text so accented titles tokenize
// the same as their ASCII spellings.
func Normalize(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokenize splits text into lowercase tokens, filtering short tokens, stop
// words, and tokens without a single letter. Bare numbers like years or
// course codes carry no topical signal.
func Tokenize(text string) []string {
	lowered := Normalize(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		if _, skip := stopWords[token]; skip {
			continue
		}
		if !hasLetter(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

func hasLetter(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsStopWord reports whether the token is filtered during tokenization.
func IsStopWord(token string) bool {
	_, ok := stopWords[strings.ToLower(token)]
	return ok
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanTitle normalizes a raw title: underscores and hyphens become spaces,
// runs of whitespace collapse to one space, and the result is trimmed.
func CleanTitle(title string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(title)
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
