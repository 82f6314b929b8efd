package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brieflyhq/briefly/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidSummary = errors.New("invalid summary")
	ErrInvalidProfile = errors.New("invalid profile")
	ErrNoCredential   = errors.New("no credential stored for user")
	ErrNotFound       = errors.New("not found")
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

// validateSummary validates a summary before insertion.
func validateSummary(summary *model.Summary) error {
	if summary == nil {
		return fmt.Errorf("%w: summary", ErrNilParameter)
	}
	if summary.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidSummary)
	}
	if summary.MessageID == "" {
		return fmt.Errorf("%w: missing message ID", ErrInvalidSummary)
	}
	if !summary.Category.ValidFor(summary.Lane) {
		return fmt.Errorf("%w: category %s not allowed in lane %s", ErrInvalidSummary, summary.Category, summary.Lane)
	}
	if summary.ImportanceScore < 0 || summary.ImportanceScore > 10 {
		return fmt.Errorf("%w: importance score must be between 0 and 10", ErrInvalidSummary)
	}
	if summary.MatchScore != nil {
		if summary.Lane != model.LanePriority {
			return fmt.Errorf("%w: match score only allowed in priority lane", ErrInvalidSummary)
		}
		if *summary.MatchScore < 0 || *summary.MatchScore > 100 {
			return fmt.Errorf("%w: match score must be between 0 and 100", ErrInvalidSummary)
		}
	}
	return nil
}

// validateProfile validates a profile before saving.
func validateProfile(profile *model.PersonaProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(profile.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidProfile)
	}
	switch profile.Plan {
	case "", model.PlanFree, model.PlanPro:
	default:
		return fmt.Errorf("%w: unknown plan %q", ErrInvalidProfile, profile.Plan)
	}
	return nil
}
