// Package textnorm canonicalizes free-text labels so that accents, casing,
// punctuation and common abbreviations do not count as differences.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/recertify/internal/config"
)

// ligatures are letters that do not decompose into an ASCII base letter.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "oe",
	"æ", "ae", "Æ", "ae",
	"ß", "ss",
	"ø", "o", "Ø", "o",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
)

// Normalizer canonicalizes labels using a vocabulary. It is safe for
// concurrent use once built.
type Normalizer struct {
	abbreviations map[string][]string
	stopWords     map[string]struct{}
}

// New builds a normalizer from a vocabulary.
func New(vocab config.Vocabulary) *Normalizer {
	n := &Normalizer{
		abbreviations: make(map[string][]string, len(vocab.Abbreviations)),
		stopWords:     make(map[string]struct{}, len(vocab.StopWords)),
	}
	for abbr, full := range vocab.Abbreviations {
		n.abbreviations[abbr] = strings.Fields(full)
	}
	for _, w := range vocab.StopWords {
		n.stopWords[w] = struct{}{}
	}
	return n
}

// Default returns a normalizer over the built-in vocabulary.
func Default() *Normalizer {
	return New(config.DefaultVocabulary())
}

// Normalize transliterates text to lower-case ASCII words separated by single
// spaces, expands abbreviations and, when removeStopWords is set, drops
// function words. An empty input yields an empty string.
func (n *Normalizer) Normalize(text string, removeStopWords bool) string {
	words := n.Words(text, removeStopWords)
	return strings.Join(words, " ")
}

// Words is Normalize split into words.
func (n *Normalizer) Words(text string, removeStopWords bool) []string {
	if text == "" {
		return nil
	}

	words := strings.Fields(fold(text))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if full, ok := n.abbreviations[w]; ok {
			for _, fw := range full {
				out = n.appendWord(out, fw, removeStopWords)
			}
			continue
		}
		out = n.appendWord(out, w, removeStopWords)
	}
	return out
}

func (n *Normalizer) appendWord(out []string, w string, removeStopWords bool) []string {
	if removeStopWords {
		if _, stop := n.stopWords[w]; stop {
			return out
		}
	}
	return append(out, w)
}

// fold strips accents, lower-cases and turns every character outside
// [a-z0-9] into a space.
func fold(text string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripAccents, ligatures.Replace(text))
	if err != nil {
		plain = text
	}
	plain = strings.ToLower(plain)

	var b strings.Builder
	b.Grow(len(plain))
	for _, r := range plain {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Key folds text into an underscore-separated identifier, suitable for
// matching column headers. No abbreviation is expanded.
func Key(text string) string {
	return strings.Join(strings.Fields(fold(text)), "_")
}
