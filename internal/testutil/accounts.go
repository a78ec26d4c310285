package testutil

import (
	"time"

	"github.com/Veraticus/recertify/internal/model"
)

// AccountBuilder builds account records for tests.
type AccountBuilder struct {
	rec model.AccountRecord
}

// NewAccount starts a record with matching labels, a recent login and an
// extraction date of 2024-06-30.
func NewAccount(id string) *AccountBuilder {
	extraction := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	login := extraction.AddDate(0, 0, -1)
	return &AccountBuilder{rec: model.AccountRecord{
		ID:                  id,
		Name:                "User " + id,
		ExtractedProfile:    "assistant",
		ReferenceProfile:    "assistant",
		ExtractedDepartment: "finance",
		ReferenceDepartment: "finance",
		LastLoginDate:       &login,
		ExtractionDate:      &extraction,
	}}
}

// WithProfiles sets the extracted and reference profiles.
func (b *AccountBuilder) WithProfiles(extracted, reference string) *AccountBuilder {
	b.rec.ExtractedProfile = extracted
	b.rec.ReferenceProfile = reference
	return b
}

// WithDepartments sets the extracted and reference departments.
func (b *AccountBuilder) WithDepartments(extracted, reference string) *AccountBuilder {
	b.rec.ExtractedDepartment = extracted
	b.rec.ReferenceDepartment = reference
	return b
}

// IdleFor moves the last login so the account has been idle for days.
func (b *AccountBuilder) IdleFor(days int) *AccountBuilder {
	login := b.rec.ExtractionDate.AddDate(0, 0, -days)
	b.rec.LastLoginDate = &login
	return b
}

// WithoutLogin clears the last login date.
func (b *AccountBuilder) WithoutLogin() *AccountBuilder {
	b.rec.LastLoginDate = nil
	return b
}

// WithoutExtractionDate clears the extraction date.
func (b *AccountBuilder) WithoutExtractionDate() *AccountBuilder {
	b.rec.ExtractionDate = nil
	return b
}

// NotInReference marks the account as absent from the reference.
func (b *AccountBuilder) NotInReference() *AccountBuilder {
	b.rec.HasNoReferenceMatch = true
	b.rec.ReferenceProfile = ""
	b.rec.ReferenceDepartment = ""
	return b
}

// Build returns the record.
func (b *AccountBuilder) Build() model.AccountRecord {
	return b.rec
}
