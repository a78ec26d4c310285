package model

import (
	"fmt"
	"strings"
	"time"
)

// Category partitions the whitelist by the kind of label being compared.
type Category string

// Whitelist categories.
const (
	CategoryProfile    Category = "profile"
	CategoryDepartment Category = "department"
)

// Categories lists every whitelist category in evaluation order.
var Categories = []Category{CategoryDepartment, CategoryProfile}

// ParseCategory maps a label to a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryProfile:
		return CategoryProfile, nil
	case CategoryDepartment:
		return CategoryDepartment, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Kind tells whether an accepted pair is a cosmetic variation or a genuine change.
type Kind string

// Whitelist kinds.
const (
	KindVariation Kind = "variation"
	KindChange    Kind = "change"
)

// ParseKind maps a label to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindVariation:
		return KindVariation, nil
	case KindChange:
		return KindChange, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Verdict is the result of looking a pair up in the whitelist.
type Verdict string

// Verdict constants.
const (
	VerdictUnknown   Verdict = "unknown"
	VerdictVariation Verdict = "variation"
	VerdictChange    Verdict = "change"
)

// AutoHarmonizer is the certifier recorded for entries added by the classifier itself.
const AutoHarmonizer = "auto-harmonization"

// WhitelistEntry is an accepted (extraction, reference) label pair.
type WhitelistEntry struct {
	ValidatedOn    time.Time
	ExtractedValue string
	ReferenceValue string
	Certifier      string
	Category       Category
	Kind           Kind
}

// PairKey identifies an entry within its category.
type PairKey struct {
	ExtractedValue string
	ReferenceValue string
}

// Key returns the de-duplication key of the entry.
func (e WhitelistEntry) Key() PairKey {
	return PairKey{ExtractedValue: e.ExtractedValue, ReferenceValue: e.ReferenceValue}
}
