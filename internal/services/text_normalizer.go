package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength is the shortest word treated as a significant keyword
const minTokenLength = 3

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about after again against all already also an and any anyone are as at be because been before
		being below between both but by can could did do does doing each even every few for from further
		get got had has have he her here hers him his how i if in into is it its just like lot lots make
		makes many me more most much my need needs no not of off on once only or other our out over own
		really same she should so some something still such than that the their them then there these
		they thing things this those through to too under up use using very was way we were what when
		where which while who why will with without would you your`) {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether the word carries no topical meaning
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// NormalizeText lowercases text, strips diacritics, turns every rune that is not a
// letter or digit into a separator and collapses whitespace. It is idempotent.
func NormalizeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits text into normalized words, keeping duplicates and order
func Tokenize(text string) []string {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// SignificantTokens returns the keyword stream of a text: stopwords and short words
// removed and plurals folded. Duplicates and order are preserved.
func SignificantTokens(text string) []string {
	words := Tokenize(text)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopword(w) {
			continue
		}
		w = foldPlural(w)
		if len([]rune(w)) < minTokenLength || IsStopword(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// uniqueTokens drops repeated tokens, keeping first occurrences in order
func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}

func foldPlural(word string) string {
	n := len(word)
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case n > 4 && (strings.HasSuffix(word, "sses") || strings.HasSuffix(word, "ches") ||
		strings.HasSuffix(word, "shes") || strings.HasSuffix(word, "xes")):
		return word[:n-2]
	case n > 3 && strings.HasSuffix(word, "s") &&
		!strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "is") && !strings.HasSuffix(word, "us"):
		return word[:n-1]
	}
	return word
}

// containsPhrase reports whether any word of normalized text starts with the
// normalized keyword phrase. A keyword ending in a space must match whole words.
func containsPhrase(normalized, keyword string) bool {
	return strings.Contains(" "+normalized+" ", " "+keyword)
}
