package similarity

import (
	"strings"

	"github.com/Veraticus/recertify/internal/textnorm"
)

// NearIdenticalRatio is the ratio at or above which labels are always similar.
const NearIdenticalRatio = 95.0

// DefaultThreshold is the default lower bound of the gray zone.
const DefaultThreshold = 85.0

// Tier is the band a comparison falls into.
type Tier int

// Comparison tiers, from most to least similar.
const (
	// TierMissing means exactly one label is empty.
	TierMissing Tier = iota
	// TierIdentical means the labels normalize to the same string.
	TierIdentical
	// TierNearIdentical means the ratio reached NearIdenticalRatio.
	TierNearIdentical
	// TierGrayVariation means the ratio is in the gray zone and the concepts agree.
	TierGrayVariation
	// TierGrayChange means the ratio is in the gray zone but the concepts differ.
	TierGrayChange
	// TierDistinct means the ratio is below the threshold.
	TierDistinct
)

func (t Tier) String() string {
	switch t {
	case TierMissing:
		return "missing"
	case TierIdentical:
		return "identical"
	case TierNearIdentical:
		return "near-identical"
	case TierGrayVariation:
		return "gray-variation"
	case TierGrayChange:
		return "gray-change"
	case TierDistinct:
		return "distinct"
	}
	return "unknown"
}

// Comparison is the detailed outcome of comparing two labels.
type Comparison struct {
	NormalizedA string
	NormalizedB string
	Ratio       float64
	Tier        Tier
}

// Similar reports whether the comparison counts as the same label.
func (c Comparison) Similar() bool {
	switch c.Tier {
	case TierIdentical, TierNearIdentical, TierGrayVariation:
		return true
	}
	return false
}

// Equivalent reports whether the labels are the same without any judgment
// call, i.e. identical after normalization or nearly so.
func (c Comparison) Equivalent() bool {
	return c.Tier == TierIdentical || c.Tier == TierNearIdentical
}

// Scorer compares labels in three tiers: near-identical ratios are similar,
// ratios below the threshold are not, and the gray zone in between is
// settled by the semantic detector.
type Scorer struct {
	normalizer *textnorm.Normalizer
	metric     Metric
	semantic   SemanticDetector
	threshold  float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMetric replaces the default IndelRatio metric.
func WithMetric(m Metric) Option {
	return func(s *Scorer) { s.metric = m }
}

// WithThreshold sets the lower bound of the gray zone.
func WithThreshold(threshold float64) Option {
	return func(s *Scorer) { s.threshold = threshold }
}

// NewScorer creates a scorer.
func NewScorer(n *textnorm.Normalizer, semantic SemanticDetector, opts ...Option) *Scorer {
	s := &Scorer{
		normalizer: n,
		semantic:   semantic,
		metric:     IndelRatio{},
		threshold:  DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Semantic returns the detector used in the gray zone.
func (s *Scorer) Semantic() SemanticDetector {
	return s.semantic
}

// IsSimilar compares at the configured threshold.
func (s *Scorer) IsSimilar(a, b string) bool {
	return s.CompareAt(a, b, s.threshold).Similar()
}

// IsSimilarAt compares at an explicit threshold.
func (s *Scorer) IsSimilarAt(a, b string, threshold float64) bool {
	return s.CompareAt(a, b, threshold).Similar()
}

// Compare compares at the configured threshold.
func (s *Scorer) Compare(a, b string) Comparison {
	return s.CompareAt(a, b, s.threshold)
}

// CompareAt places two labels in a Tier. Stop words are kept for the ratio
// so that distinguishing tokens still count. Two blank labels are identical.
func (s *Scorer) CompareAt(a, b string, threshold float64) Comparison {
	if IsMissing(a) != IsMissing(b) {
		return Comparison{Tier: TierMissing}
	}

	c := Comparison{
		NormalizedA: s.normalizer.Normalize(a, false),
		NormalizedB: s.normalizer.Normalize(b, false),
	}
	if c.NormalizedA == c.NormalizedB {
		c.Ratio = 100
		c.Tier = TierIdentical
		return c
	}

	c.Ratio = s.metric.Ratio(c.NormalizedA, c.NormalizedB)
	switch {
	case c.Ratio >= NearIdenticalRatio:
		c.Tier = TierNearIdentical
	case c.Ratio >= threshold:
		if s.semantic != nil && s.semantic.IsSemanticChange(a, b) {
			c.Tier = TierGrayChange
		} else {
			c.Tier = TierGrayVariation
		}
	default:
		c.Tier = TierDistinct
	}
	return c
}

// Ratio returns the metric score of the normalized labels, 0 when exactly
// one is missing.
func (s *Scorer) Ratio(a, b string) float64 {
	if IsMissing(a) != IsMissing(b) {
		return 0
	}
	return s.metric.Ratio(s.normalizer.Normalize(a, false), s.normalizer.Normalize(b, false))
}

// IsMissing reports whether a label is absent. Blank labels count as absent.
func IsMissing(label string) bool {
	return strings.TrimSpace(label) == ""
}
