package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recertify/internal/config"
	"github.com/Veraticus/recertify/internal/textnorm"
)

func newTestScorer(opts ...Option) *Scorer {
	n := textnorm.Default()
	return NewScorer(n, NewKeywordOverlap(n, config.DefaultVocabulary().RoleKeywords), opts...)
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		a, b   string
		want   float64
	}{
		{"indel appended letter", IndelRatio{}, "assistant", "assistant e", 90},
		{"indel substitution", IndelRatio{}, "abc", "abd", 100 * (1 - 2.0/6)},
		{"indel both empty", IndelRatio{}, "", "", 100},
		{"indel one empty", IndelRatio{}, "abc", "", 0},
		{"levenshtein classic", LevenshteinRatio{}, "kitten", "sitting", 100 * (1 - 3.0/7)},
		{"levenshtein appended letter", LevenshteinRatio{}, "assistant", "assistant e", 100 * (1 - 2.0/11)},
		{"levenshtein both empty", LevenshteinRatio{}, "", "", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.metric.Ratio(tt.a, tt.b), 0.001)
			assert.InDelta(t, tt.want, tt.metric.Ratio(tt.b, tt.a), 0.001)
		})
	}
}

func TestMetricByName(t *testing.T) {
	m, err := MetricByName("")
	require.NoError(t, err)
	assert.Equal(t, "indel", m.Name())

	m, err = MetricByName("levenshtein")
	require.NoError(t, err)
	assert.Equal(t, "levenshtein", m.Name())

	_, err = MetricByName("cosine")
	require.Error(t, err)
}

func TestScorer_Compare(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name      string
		a, b      string
		threshold float64
		want      Tier
	}{
		{"missing left", "", "Assistant", DefaultThreshold, TierMissing},
		{"blank right", "Assistant", "   ", DefaultThreshold, TierMissing},
		{"both blank", "", "  ", DefaultThreshold, TierIdentical},
		{"punctuation only", "--//--", "..", DefaultThreshold, TierIdentical},
		{"accents and case", "Développeur", "developpeur", DefaultThreshold, TierIdentical},
		{"abbreviation", "Resp. Comptabilité", "Responsable comptabilite", DefaultThreshold, TierIdentical},
		{"plural", "Responsable comptabilité générale", "Responsable comptabilité générales", DefaultThreshold, TierNearIdentical},
		{"inclusive spelling", "Assistant", "Assistant(e)", DefaultThreshold, TierGrayVariation},
		{"different role in gray zone", "Directeur commercial", "Directeur comptable", 70, TierGrayChange},
		{"different role below threshold", "Directeur commercial", "Directeur comptable", DefaultThreshold, TierDistinct},
		{"unrelated", "Comptabilité", "Ressources humaines", DefaultThreshold, TierDistinct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := s.CompareAt(tt.a, tt.b, tt.threshold)
			assert.Equal(t, tt.want, c.Tier, "ratio %.2f", c.Ratio)
		})
	}
}

func TestScorer_Reflexive(t *testing.T) {
	s := newTestScorer()

	for _, label := range []string{"", "   ", "--//--", "Assistant", "Développeur", "Resp. RH", "Assistant(e)"} {
		t.Run(label, func(t *testing.T) {
			c := s.Compare(label, label)
			assert.Equal(t, TierIdentical, c.Tier)
			assert.InDelta(t, 100, c.Ratio, 0)
			assert.True(t, s.IsSimilar(label, label))
			assert.True(t, s.IsSimilarAt(label, label, 100))
		})
	}
}

func TestScorer_Monotonic(t *testing.T) {
	s := newTestScorer()
	thresholds := []float64{95, 90, 85, 80, 70, 50, 1}

	pairs := []struct {
		a, b string
	}{
		{"Assistant", "Assistant(e)"},
		{"Directeur commercial", "Directeur comptable"},
		{"Comptabilité", "Ressources humaines"},
		{"Responsable comptabilité générale", "Responsable comptabilité générales"},
		{"Chef de projet", "Chef de projets"},
		{"", "Assistant"},
		{"", ""},
	}

	for _, p := range pairs {
		t.Run(p.a+"/"+p.b, func(t *testing.T) {
			for i, high := range thresholds {
				if !s.IsSimilarAt(p.a, p.b, high) {
					continue
				}
				for _, low := range thresholds[i+1:] {
					assert.True(t, s.IsSimilarAt(p.a, p.b, low), "similar at %.0f but not at %.0f", high, low)
				}
			}
		})
	}
}

func TestComparison_Predicates(t *testing.T) {
	tests := []struct {
		tier       Tier
		similar    bool
		equivalent bool
	}{
		{TierMissing, false, false},
		{TierIdentical, true, true},
		{TierNearIdentical, true, true},
		{TierGrayVariation, true, false},
		{TierGrayChange, false, false},
		{TierDistinct, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			c := Comparison{Tier: tt.tier}
			assert.Equal(t, tt.similar, c.Similar())
			assert.Equal(t, tt.equivalent, c.Equivalent())
		})
	}
}

func TestScorer_Options(t *testing.T) {
	s := newTestScorer()
	assert.InDelta(t, DefaultThreshold, s.Threshold(), 0)
	assert.True(t, s.IsSimilar("Assistant", "Assistant(e)"))
	assert.InDelta(t, 90, s.Ratio("Assistant", "Assistant(e)"), 0.001)
	assert.InDelta(t, 0, s.Ratio("", "Assistant"), 0)
	assert.True(t, s.IsSimilar("", ""))
	assert.True(t, s.IsSimilar(" ", ""))

	strict := newTestScorer(WithThreshold(92))
	assert.False(t, strict.IsSimilar("Assistant", "Assistant(e)"))
	assert.True(t, strict.IsSimilarAt("Assistant", "Assistant(e)", 85))

	lev := newTestScorer(WithMetric(LevenshteinRatio{}))
	assert.Equal(t, TierDistinct, lev.Compare("Assistant", "Assistant(e)").Tier)
}

func TestKeywordOverlap(t *testing.T) {
	n := textnorm.Default()
	k := NewKeywordOverlap(n, config.DefaultVocabulary().RoleKeywords)

	t.Run("concepts", func(t *testing.T) {
		assert.Equal(t, map[string]struct{}{"directeur": {}, "commercial": {}}, k.ExtractKeyConcepts("Directeur Commercial"))
		assert.Equal(t, map[string]struct{}{"responsable": {}}, k.ExtractKeyConcepts("Resp. paie"))
		assert.Equal(t, map[string]struct{}{"gestion": {}, "stocks": {}}, k.ExtractKeyConcepts("Gestion des stocks"))
		assert.Empty(t, k.ExtractKeyConcepts("A B C"))
	})

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same role", "Assistant", "Assistant(e)", false},
		{"one role differs of two", "Directeur commercial", "Directeur comptable", true},
		{"half the concepts shared", "Chef comptable", "Chef", false},
		{"no concepts", "A B", "C D", false},
		{"disjoint fallback words", "Gestion stocks", "Paie salaires", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, k.IsSemanticChange(tt.a, tt.b))
		})
	}
}

func TestJaccard(t *testing.T) {
	set := func(words ...string) map[string]struct{} {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			m[w] = struct{}{}
		}
		return m
	}

	assert.InDelta(t, 0, Jaccard(set(), set()), 0)
	assert.InDelta(t, 1, Jaccard(set("a"), set("a")), 0)
	assert.InDelta(t, 1.0/3, Jaccard(set("a", "b"), set("b", "c")), 0.0001)
	assert.InDelta(t, 0, Jaccard(set("a"), set("b")), 0)
}
