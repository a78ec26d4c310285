package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/testutil"
)

func TestReviewOptions(t *testing.T) {
	change := model.AccountRecord{AnomalyTags: []string{model.TagProfileChange}}
	assert.Equal(t,
		[]model.Decision{model.DecisionModify, model.DecisionDisable, model.DecisionKeep},
		ReviewOptions(change))

	other := model.AccountRecord{AnomalyTags: []string{model.TagInactive}}
	assert.Equal(t, []model.Decision{model.DecisionDisable, model.DecisionKeep}, ReviewOptions(other))
}

func TestEngine_ApplyDecision(t *testing.T) {
	tests := []struct {
		name        string
		decision    model.Decision
		wantErr     error
		wantEntries int
	}{
		{name: "keep validates the change", decision: model.DecisionKeep, wantEntries: 2},
		{name: "modify validates the change", decision: model.DecisionModify, wantEntries: 2},
		{name: "disable records nothing", decision: model.DecisionDisable},
		{name: "empty decision is rejected", decision: model.DecisionNone, wantErr: common.ErrInvalidOverride},
		{name: "unknown decision is rejected", decision: model.Decision("Archive"), wantErr: common.ErrInvalidOverride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.classify(t, testutil.NewAccount("1").
				WithProfiles("Développeur", "Chef de projet").
				WithDepartments("Finance", "Ressources humaines").
				Build())
			require.True(t, rec.NeedsReview())

			err := f.engine.ApplyDecision(context.Background(), &rec, tt.decision, "alice")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, model.DecisionNone, rec.Decision)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.decision, rec.Decision)
			assert.False(t, rec.IsAutomaticDecision)

			entries := f.repo.Entries()
			require.Len(t, entries, tt.wantEntries)
			for _, e := range entries {
				assert.Equal(t, model.KindChange, e.Kind)
				assert.Equal(t, "alice", e.Certifier)
			}
		})
	}
}

func TestEngine_ApplyDecisionOverridesAutomatic(t *testing.T) {
	f := newFixture(t)
	rec := f.classify(t, testutil.NewAccount("1").IdleFor(500).Build())
	require.Equal(t, model.DecisionDisable, rec.Decision)

	require.NoError(t, f.engine.ApplyDecision(context.Background(), &rec, model.DecisionKeep, "bob"))
	assert.Equal(t, model.DecisionKeep, rec.Decision)
	assert.False(t, rec.IsAutomaticDecision)
	assert.Empty(t, f.repo.Entries())
}

func TestEngine_ValidatedChangeIsNotReviewedAgain(t *testing.T) {
	f := newFixture(t)
	account := testutil.NewAccount("1").WithProfiles("Développeur", "Chef de projet").Build()

	rec := f.classify(t, account)
	require.NoError(t, f.engine.ApplyDecision(context.Background(), &rec, model.DecisionKeep, "alice"))

	again := f.classify(t, account)
	assert.Empty(t, again.AnomalyTags)
	assert.Equal(t, model.DecisionKeep, again.Decision)
	assert.True(t, again.IsAutomaticDecision)
}

func TestEngine_ApplyDecisionRecordsOneSidedChange(t *testing.T) {
	f := newFixture(t)
	rec := testutil.NewAccount("1").WithProfiles("", "Chef de projet").Build()
	rec.AddTag(model.TagProfileChange)

	require.NoError(t, f.engine.ApplyDecision(context.Background(), &rec, model.DecisionKeep, "alice"))

	entries := f.repo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.KindChange, entries[0].Kind)
	assert.Empty(t, entries[0].ExtractedValue)
	assert.Equal(t, model.VerdictChange, f.store.Classify(model.CategoryProfile, "", "Chef de projet"))
}

func TestEngine_ReviewPending(t *testing.T) {
	f := newFixture(t)
	result, err := f.engine.ClassifyBatch(context.Background(), []model.AccountRecord{
		testutil.NewAccount("keep").WithProfiles("Développeur", "Chef de projet").Build(),
		testutil.NewAccount("idle").IdleFor(300).Build(),
		testutil.NewAccount("skip").WithDepartments("Finance", "Ressources humaines").Build(),
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Run.ToReview)

	reviewer := NewMockReviewer(model.DecisionKeep).Respond("skip", model.DecisionNone)
	reviewed, err := f.engine.ReviewPending(context.Background(), result, reviewer, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, reviewed)

	calls := reviewer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "keep", calls[0].Record.ID)
	assert.Contains(t, calls[0].Options, model.DecisionModify)

	assert.Equal(t, model.DecisionKeep, result.Records[0].Decision)
	assert.False(t, result.Records[0].IsAutomaticDecision)
	assert.Equal(t, model.DecisionNone, result.Records[2].Decision)
	assert.Equal(t, 1, result.Run.ToReview)
	assert.Len(t, f.repo.Entries(), 1)
}

func TestEngine_ReviewPendingStopsOnReviewerError(t *testing.T) {
	f := newFixture(t)
	result, err := f.engine.ClassifyBatch(context.Background(), []model.AccountRecord{
		testutil.NewAccount("1").WithProfiles("Développeur", "Chef de projet").Build(),
		testutil.NewAccount("2").WithProfiles("Développeur", "Chef de projet").Build(),
	})
	require.NoError(t, err)

	reviewer := NewMockReviewer(model.DecisionKeep)
	reviewer.Err = errors.New("interrupted")

	reviewed, err := f.engine.ReviewPending(context.Background(), result, reviewer, "alice")
	require.Error(t, err)
	assert.Equal(t, 0, reviewed)
	assert.Len(t, reviewer.Calls(), 1)
}

func TestEngine_ReviewPendingRejectsUnofferedDecision(t *testing.T) {
	f := newFixture(t)
	result := &Result{Records: []model.AccountRecord{{
		ID:          "1",
		AnomalyTags: []string{model.TagInactive},
	}}}

	reviewer := NewMockReviewer(model.DecisionModify)
	reviewed, err := f.engine.ReviewPending(context.Background(), result, reviewer, "alice")
	assert.ErrorIs(t, err, common.ErrInvalidOverride)
	assert.Equal(t, 0, reviewed)
	assert.Equal(t, model.DecisionNone, result.Records[0].Decision)
}
