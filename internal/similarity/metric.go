// Package similarity decides whether two labels denote the same thing, using a
// fuzzy edit-distance ratio with a keyword-overlap tie-breaker.
package similarity

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	edlib "github.com/hbollon/go-edlib"
)

// Metric scores two already-normalized strings on a 0–100 scale.
type Metric interface {
	Ratio(a, b string) float64
	Name() string
}

// IndelRatio is the normalized insertion/deletion distance:
// 100 * (1 - indel(a, b) / (len(a) + len(b))). Substitutions cost two edits,
// so an appended suffix scores higher than with plain Levenshtein.
type IndelRatio struct{}

// Name implements Metric.
func (IndelRatio) Name() string { return "indel" }

// Ratio implements Metric.
func (IndelRatio) Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	dist := edlib.LCSEditDistance(a, b)
	return 100 * (1 - float64(dist)/float64(total))
}

// LevenshteinRatio is 100 * (1 - levenshtein(a, b) / max(len(a), len(b))).
type LevenshteinRatio struct{}

// Name implements Metric.
func (LevenshteinRatio) Name() string { return "levenshtein" }

// Ratio implements Metric.
func (LevenshteinRatio) Ratio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// MetricByName returns the metric registered under name.
func MetricByName(name string) (Metric, error) {
	switch name {
	case "", "indel":
		return IndelRatio{}, nil
	case "levenshtein":
		return LevenshteinRatio{}, nil
	}
	return nil, fmt.Errorf("unknown similarity metric %q", name)
}
