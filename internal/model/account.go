// Package model defines the core domain models used throughout the application.
package model

import (
	"slices"
	"strings"
	"time"
)

// Decision is the certification outcome for an account.
type Decision string

// Decision constants. DecisionNone means no decision has been taken yet.
const (
	DecisionNone    Decision = ""
	DecisionKeep    Decision = "Keep"
	DecisionModify  Decision = "Modify"
	DecisionDisable Decision = "Disable"
)

// ParseDecision maps a label to a Decision, case-insensitively.
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DecisionNone, true
	case "keep":
		return DecisionKeep, true
	case "modify":
		return DecisionModify, true
	case "disable":
		return DecisionDisable, true
	}
	return DecisionNone, false
}

// Anomaly tags attached to account records.
const (
	TagInactive             = "Potentially inactive account"
	TagNotInReference       = "Account not in reference"
	TagDepartmentChange     = "Department change to review"
	TagDepartmentHarmonized = "Department harmonized"
	TagProfileChange        = "Profile change to review"
	TagProfileHarmonized    = "Profile harmonized"
	tagSeparator            = ", "
)

// AccountRecord is one user account reconciled between the extraction and the reference.
type AccountRecord struct {
	LastLoginDate       *time.Time
	ExtractionDate      *time.Time
	DaysInactive        *int
	ID                  string
	Name                string
	ExtractedProfile    string
	ReferenceProfile    string
	ExtractedDepartment string
	ReferenceDepartment string
	Decision            Decision
	AnomalyTags         []string
	HasNoReferenceMatch bool
	IsAutomaticDecision bool
}

// AddTag appends a tag unless it is already present, preserving insertion order.
func (r *AccountRecord) AddTag(tag string) {
	if r.HasTag(tag) {
		return
	}
	r.AnomalyTags = append(r.AnomalyTags, tag)
}

// HasTag reports whether the record carries the given tag.
func (r *AccountRecord) HasTag(tag string) bool {
	return slices.Contains(r.AnomalyTags, tag)
}

// TagsString joins the tags for display and export.
func (r *AccountRecord) TagsString() string {
	return strings.Join(r.AnomalyTags, tagSeparator)
}

// SplitTags is the inverse of TagsString.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, tagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// NeedsReview reports whether the record is tagged but still has no decision.
func (r *AccountRecord) NeedsReview() bool {
	return len(r.AnomalyTags) > 0 && r.Decision == DecisionNone
}

// ChangeUnderReview reports whether the record carries a change-to-review tag.
func (r *AccountRecord) ChangeUnderReview() bool {
	return r.HasTag(TagDepartmentChange) || r.HasTag(TagProfileChange)
}
