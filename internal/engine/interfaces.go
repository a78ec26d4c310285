package engine

import (
	"context"

	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/similarity"
)

// Whitelist is the memoization store the engine consults and extends.
type Whitelist interface {
	Classify(category model.Category, extracted, reference string) model.Verdict
	Append(ctx context.Context, entry model.WhitelistEntry) (bool, error)
}

// Comparer places two labels in a similarity tier.
type Comparer interface {
	Compare(a, b string) similarity.Comparison
}

// Reviewer collects a human decision for a record awaiting review.
type Reviewer interface {
	Review(ctx context.Context, record model.AccountRecord, options []model.Decision) (model.Decision, error)
}

// RunRecorder persists batch summaries.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *model.Run) error
}
