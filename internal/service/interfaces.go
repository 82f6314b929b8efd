// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/brieflyhq/briefly/internal/model"
)

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// FetchResult is everything one mailbox fetch produces. RefreshedToken is
// non-nil when the credential was refreshed during the fetch and should be
// persisted by the caller; the source itself never writes credentials.
type FetchResult struct {
	RefreshedToken *oauth2.Token
	Messages       []model.Message
	UsedFallback   bool
}

// MailSource pulls candidate messages from the user's mailbox.
type MailSource interface {
	Fetch(ctx context.Context, token *oauth2.Token, window time.Duration, limit int) (*FetchResult, error)
}

// ClassifyOptions tunes a single classification call.
type ClassifyOptions struct {
	AttachmentAnalysis bool
}

// Classifier produces the raw model response for one message. The response
// is unvalidated text; normalization happens downstream.
type Classifier interface {
	Classify(ctx context.Context, msg model.Message, profile *model.PersonaProfile, opts ClassifyOptions) (string, error)
	DraftReply(ctx context.Context, msg model.Message, profile *model.PersonaProfile) (string, error)
}

// SummaryFilter defines filtering options for summary queries.
type SummaryFilter struct {
	Lane       model.Lane
	Category   model.Category
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Summary operations
	SaveSummary(ctx context.Context, summary *model.Summary) (bool, error)
	SummaryExists(ctx context.Context, userID, messageID string) (bool, error)
	CountSummaries(ctx context.Context, userID string) (int, error)
	ListSummaries(ctx context.Context, userID string, filter SummaryFilter) ([]model.Summary, error)
	MarkSummaryRead(ctx context.Context, userID, messageID string) error

	// Profile operations
	GetProfile(ctx context.Context, userID string) (*model.PersonaProfile, error)
	SaveProfile(ctx context.Context, profile *model.PersonaProfile) error
	ListUsersWithCredentials(ctx context.Context) ([]string, error)

	// Credential operations (tokens are encrypted at rest)
	GetCredential(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveCredential(ctx context.Context, userID string, token *oauth2.Token) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ScanReport shows the results of a scan run.
type ScanReport struct {
	UserID       string
	TotalFound   int
	Processed    int
	Skipped      int
	UsedFallback bool
	Message      string
	Duration     time.Duration
}
