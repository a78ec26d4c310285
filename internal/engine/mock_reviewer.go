package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/recertify/internal/model"
)

// MockReviewer is a test implementation of the Reviewer interface. It answers
// from a per-account table and falls back to a default decision.
type MockReviewer struct {
	Err       error
	responses map[string]model.Decision
	calls     []MockReviewCall
	fallback  model.Decision
	mu        sync.Mutex
}

// MockReviewCall records one review request.
type MockReviewCall struct {
	Options []model.Decision
	Record  model.AccountRecord
}

// NewMockReviewer creates a reviewer answering fallback unless told otherwise.
func NewMockReviewer(fallback model.Decision) *MockReviewer {
	return &MockReviewer{
		responses: make(map[string]model.Decision),
		fallback:  fallback,
	}
}

// Respond sets the answer for one account.
func (m *MockReviewer) Respond(accountID string, decision model.Decision) *MockReviewer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[accountID] = decision
	return m
}

// Review implements Reviewer.
func (m *MockReviewer) Review(_ context.Context, record model.AccountRecord, options []model.Decision) (model.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockReviewCall{Record: record, Options: options})
	if m.Err != nil {
		return model.DecisionNone, m.Err
	}
	if d, ok := m.responses[record.ID]; ok {
		return d, nil
	}
	return m.fallback, nil
}

// Calls returns the recorded review requests.
func (m *MockReviewer) Calls() []MockReviewCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockReviewCall(nil), m.calls...)
}
