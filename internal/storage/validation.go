package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/whitelist"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCategory ensures a whitelist category is known.
func validateCategory(category model.Category) error {
	switch category {
	case model.CategoryProfile, model.CategoryDepartment:
		return nil
	}
	return fmt.Errorf("%w: %q", whitelist.ErrInvalidCategory, category)
}

// validateRun validates a run summary.
func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if err := validateString(run.ID, "run.ID"); err != nil {
		return err
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: run.StartedAt", ErrNilParameter)
	}
	return nil
}
