package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/similarity"
)

// ReviewOptions returns the decisions a certifier may pick for a record.
// Modify only makes sense when a label change is under review.
func ReviewOptions(rec model.AccountRecord) []model.Decision {
	if rec.ChangeUnderReview() {
		return []model.Decision{model.DecisionModify, model.DecisionDisable, model.DecisionKeep}
	}
	return []model.Decision{model.DecisionDisable, model.DecisionKeep}
}

// ApplyDecision records a human decision on a record, replacing any automatic
// one. Keeping or modifying a record whose labels were under review validates
// those label pairs as genuine changes so later runs accept them silently.
// A pair with one blank side is recorded as well.
func (e *Engine) ApplyDecision(ctx context.Context, rec *model.AccountRecord, decision model.Decision, certifier string) error {
	switch decision {
	case model.DecisionKeep, model.DecisionModify, model.DecisionDisable:
	default:
		return fmt.Errorf("%w: %q", common.ErrInvalidOverride, decision)
	}

	rec.Decision = decision
	rec.IsAutomaticDecision = false

	if decision == model.DecisionDisable {
		return nil
	}

	if certifier == "" {
		certifier = e.config.Certifier
	}

	var errs []error
	for _, c := range []struct {
		category  model.Category
		tag       string
		extracted string
		reference string
	}{
		{model.CategoryDepartment, model.TagDepartmentChange, rec.ExtractedDepartment, rec.ReferenceDepartment},
		{model.CategoryProfile, model.TagProfileChange, rec.ExtractedProfile, rec.ReferenceProfile},
	} {
		if !rec.HasTag(c.tag) || (similarity.IsMissing(c.extracted) && similarity.IsMissing(c.reference)) {
			continue
		}
		_, err := e.whitelist.Append(ctx, model.WhitelistEntry{
			Category:       c.category,
			Kind:           model.KindChange,
			ExtractedValue: c.extracted,
			ReferenceValue: c.reference,
			ValidatedOn:    e.now(),
			Certifier:      certifier,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReviewPending asks the reviewer about every record still awaiting a
// decision and applies the answers. It stops at the first reviewer error;
// whitelist failures are collected and returned together.
func (e *Engine) ReviewPending(ctx context.Context, result *Result, reviewer Reviewer, certifier string) (int, error) {
	pending := result.Pending()
	if len(pending) == 0 {
		return 0, nil
	}

	var errs []error
	reviewed := 0
	for _, i := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		rec := &result.Records[i]
		options := ReviewOptions(*rec)
		decision, err := reviewer.Review(ctx, *rec, options)
		if err != nil {
			errs = append(errs, fmt.Errorf("review of account %s: %w", rec.ID, err))
			break
		}
		if decision == model.DecisionNone {
			continue
		}
		if !slices.Contains(options, decision) {
			errs = append(errs, fmt.Errorf("%w: %s is not offered for account %s", common.ErrInvalidOverride, decision, rec.ID))
			continue
		}

		if err := e.ApplyDecision(ctx, rec, decision, certifier); err != nil {
			errs = append(errs, err)
		}
		reviewed++
	}

	result.Refresh()
	if e.runs != nil && reviewed > 0 {
		if err := e.runs.SaveRun(ctx, &result.Run); err != nil {
			errs = append(errs, fmt.Errorf("failed to record run: %w", err))
		}
	}
	return reviewed, errors.Join(errs...)
}
