// Package engine implements the anomaly classifier: it tags every reconciled
// account, decides what it can automatically and memoizes harmless label
// variations so that only genuine changes reach a certifier.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/similarity"
)

// Config holds configuration options for the engine.
type Config struct {
	Certifier      string
	InactivityDays int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		InactivityDays: DefaultInactivityDays,
	}
}

// Engine classifies account records. Rules are evaluated in a fixed order:
// inactivity, missing reference, department, profile. Tags accumulate across
// rules while the decision is set at most once.
type Engine struct {
	comparer  Comparer
	semantic  similarity.SemanticDetector
	whitelist Whitelist
	runs      RunRecorder
	now       func() time.Time
	config    Config
}

// New creates an engine with the given dependencies.
func New(comparer Comparer, semantic similarity.SemanticDetector, whitelist Whitelist, config Config) *Engine {
	return &Engine{
		comparer:  comparer,
		semantic:  semantic,
		whitelist: whitelist,
		config:    config,
		now:       time.Now,
	}
}

// WithRunRecorder makes the engine persist a summary of every batch.
func (e *Engine) WithRunRecorder(r RunRecorder) *Engine {
	e.runs = r
	return e
}

// Result is the outcome of a classification batch.
type Result struct {
	Records []model.AccountRecord
	Run     model.Run
}

// Pending returns the indexes of records that still need a human decision.
func (r *Result) Pending() []int {
	var idx []int
	for i := range r.Records {
		if r.Records[i].NeedsReview() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Refresh recomputes the run counters from the records.
func (r *Result) Refresh() {
	r.Run.Total = len(r.Records)
	r.Run.Automatic = 0
	r.Run.ToReview = 0
	r.Run.ByDecision = make(map[model.Decision]int)
	r.Run.ByTag = make(map[string]int)

	for i := range r.Records {
		rec := &r.Records[i]
		if rec.IsAutomaticDecision {
			r.Run.Automatic++
		}
		if rec.NeedsReview() {
			r.Run.ToReview++
		}
		if rec.Decision != model.DecisionNone {
			r.Run.ByDecision[rec.Decision]++
		}
		for _, tag := range rec.AnomalyTags {
			r.Run.ByTag[tag]++
		}
	}
}

// ClassifyBatch classifies a copy of records. Whitelist persistence failures
// do not stop the batch: every record is classified and the failures are
// returned joined alongside the complete result.
func (e *Engine) ClassifyBatch(ctx context.Context, records []model.AccountRecord) (*Result, error) {
	result := &Result{
		Records: make([]model.AccountRecord, len(records)),
		Run: model.Run{
			ID:        uuid.NewString(),
			StartedAt: e.now(),
			Certifier: e.config.Certifier,
		},
	}
	copy(result.Records, records)

	if len(records) == 0 {
		slog.Info("No account records to classify")
		result.Refresh()
		return result, nil
	}

	slog.Info("Starting classification", "run_id", result.Run.ID, "records", len(records))

	FillExtractionDates(result.Records)

	var errs []error
	for i := range result.Records {
		if err := e.ClassifyRecord(ctx, &result.Records[i]); err != nil {
			common.LogError(err, "Failed to persist whitelist entry", common.Fields{
				"account_id": result.Records[i].ID,
			})
			errs = append(errs, err)
		}
	}

	result.Refresh()

	if e.runs != nil {
		if err := e.runs.SaveRun(ctx, &result.Run); err != nil {
			errs = append(errs, fmt.Errorf("failed to record run: %w", err))
		}
	}

	slog.Info("Classification complete",
		"run_id", result.Run.ID,
		"total", result.Run.Total,
		"automatic", result.Run.Automatic,
		"to_review", result.Run.ToReview)

	return result, errors.Join(errs...)
}

// FillExtractionDates gives records without an extraction date the most
// recent last login observed in the batch.
func FillExtractionDates(records []model.AccountRecord) {
	var latest *time.Time
	for i := range records {
		if ll := records[i].LastLoginDate; ll != nil && !ll.IsZero() && (latest == nil || ll.After(*latest)) {
			latest = ll
		}
	}
	if latest == nil {
		return
	}
	for i := range records {
		if records[i].ExtractionDate == nil || records[i].ExtractionDate.IsZero() {
			d := *latest
			records[i].ExtractionDate = &d
		}
	}
}

// fieldOutcome is the result of comparing one pair of labels.
type fieldOutcome int

const (
	outcomeMatch fieldOutcome = iota
	outcomeWhitelisted
	outcomeHarmonized
	outcomeReview
)

// ClassifyRecord recomputes the tags and the automatic decision of one record.
// The returned error only reports a failed whitelist write; the record is
// fully classified regardless.
func (e *Engine) ClassifyRecord(ctx context.Context, rec *model.AccountRecord) error {
	rec.AnomalyTags = nil
	rec.Decision = model.DecisionNone
	rec.IsAutomaticDecision = false
	rec.DaysInactive = DaysBetween(rec.LastLoginDate, rec.ExtractionDate)

	decide := func(d model.Decision) {
		if rec.Decision == model.DecisionNone {
			rec.Decision = d
			rec.IsAutomaticDecision = true
		}
	}

	if IsInactive(rec.DaysInactive, e.config.InactivityDays) {
		rec.AddTag(model.TagInactive)
		decide(model.DecisionDisable)
	}

	if rec.HasNoReferenceMatch {
		rec.AddTag(model.TagNotInReference)
		decide(model.DecisionDisable)
		e.logRecord(rec)
		return nil
	}

	var errs []error
	for _, f := range []struct {
		category      model.Category
		extracted     string
		reference     string
		changeTag     string
		harmonizedTag string
	}{
		{model.CategoryDepartment, rec.ExtractedDepartment, rec.ReferenceDepartment, model.TagDepartmentChange, model.TagDepartmentHarmonized},
		{model.CategoryProfile, rec.ExtractedProfile, rec.ReferenceProfile, model.TagProfileChange, model.TagProfileHarmonized},
	} {
		outcome, err := e.evaluateField(ctx, f.category, f.extracted, f.reference)
		if err != nil {
			errs = append(errs, err)
		}
		applyTags(rec, outcome, f.changeTag, f.harmonizedTag)
		if outcome == outcomeWhitelisted || outcome == outcomeHarmonized {
			decide(model.DecisionKeep)
		}
	}

	e.logRecord(rec)
	return errors.Join(errs...)
}

func applyTags(rec *model.AccountRecord, outcome fieldOutcome, changeTag, harmonizedTag string) {
	switch outcome {
	case outcomeReview:
		rec.AddTag(changeTag)
	case outcomeHarmonized:
		rec.AddTag(harmonizedTag)
	}
}

// evaluateField compares an extracted label with its reference. Known pairs
// are accepted silently, semantic changes go to review and anything else is
// a spelling variation that gets memoized.
func (e *Engine) evaluateField(ctx context.Context, category model.Category, extracted, reference string) (fieldOutcome, error) {
	if similarity.IsMissing(extracted) && similarity.IsMissing(reference) {
		return outcomeMatch, nil
	}

	cmp := e.comparer.Compare(extracted, reference)
	if cmp.Equivalent() {
		return outcomeMatch, nil
	}

	if e.whitelist.Classify(category, extracted, reference) != model.VerdictUnknown {
		return outcomeWhitelisted, nil
	}

	switch cmp.Tier {
	case similarity.TierGrayChange:
		return outcomeReview, nil
	case similarity.TierGrayVariation:
	default:
		if e.semantic != nil && e.semantic.IsSemanticChange(extracted, reference) {
			return outcomeReview, nil
		}
	}

	_, err := e.whitelist.Append(ctx, model.WhitelistEntry{
		Category:       category,
		Kind:           model.KindVariation,
		ExtractedValue: extracted,
		ReferenceValue: reference,
		ValidatedOn:    e.now(),
		Certifier:      e.harmonizer(),
	})
	return outcomeHarmonized, err
}

func (e *Engine) harmonizer() string {
	if e.config.Certifier == "" {
		return model.AutoHarmonizer
	}
	return model.AutoHarmonizer + " (" + e.config.Certifier + ")"
}

func (e *Engine) logRecord(rec *model.AccountRecord) {
	if len(rec.AnomalyTags) == 0 {
		return
	}
	common.LogDebug("Classified account", common.Fields{
		"account_id": rec.ID,
		"tags":       rec.TagsString(),
		"decision":   string(rec.Decision),
		"automatic":  rec.IsAutomaticDecision,
	})
}
