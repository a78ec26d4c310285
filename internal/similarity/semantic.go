package similarity

import (
	"github.com/Veraticus/recertify/internal/textnorm"
)

// MinConceptOverlap is the Jaccard overlap below which two labels are a real change.
const MinConceptOverlap = 0.5

// minFallbackWordLength is the length a word must exceed to serve as a
// concept when a label contains no role keyword.
const minFallbackWordLength = 3

// SemanticDetector tells a spelling variant from an actual change of meaning.
type SemanticDetector interface {
	IsSemanticChange(a, b string) bool
}

// KeywordOverlap compares the role keywords found in two labels.
type KeywordOverlap struct {
	normalizer *textnorm.Normalizer
	keywords   map[string]struct{}
}

// NewKeywordOverlap builds a detector over a role keyword list.
func NewKeywordOverlap(n *textnorm.Normalizer, keywords []string) *KeywordOverlap {
	k := &KeywordOverlap{
		normalizer: n,
		keywords:   make(map[string]struct{}, len(keywords)),
	}
	for _, w := range keywords {
		k.keywords[w] = struct{}{}
	}
	return k
}

// ExtractKeyConcepts returns the role keywords of text or, when it has none,
// every word longer than three characters.
func (k *KeywordOverlap) ExtractKeyConcepts(text string) map[string]struct{} {
	words := k.normalizer.Words(text, true)
	concepts := make(map[string]struct{})

	for _, w := range words {
		if _, ok := k.keywords[w]; ok {
			concepts[w] = struct{}{}
		}
	}
	if len(concepts) > 0 {
		return concepts
	}

	for _, w := range words {
		if len(w) > minFallbackWordLength {
			concepts[w] = struct{}{}
		}
	}
	return concepts
}

// IsSemanticChange reports whether a and b share fewer than half of their
// concepts. Labels without concepts never count as a change.
func (k *KeywordOverlap) IsSemanticChange(a, b string) bool {
	ca := k.ExtractKeyConcepts(a)
	cb := k.ExtractKeyConcepts(b)
	if len(ca) == 0 || len(cb) == 0 {
		return false
	}
	return Jaccard(ca, cb) < MinConceptOverlap
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
