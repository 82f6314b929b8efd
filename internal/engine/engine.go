// Package engine orchestrates the scan pipeline: resolve the window, fetch
// candidate messages, classify them on a bounded worker pool, and persist
// exactly one summary per message.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/normalize"
	"github.com/brieflyhq/briefly/internal/service"
	"github.com/brieflyhq/briefly/internal/storage"
)

// ScanEngine orchestrates scans for one or many users.
type ScanEngine struct {
	storage    service.Storage
	source     service.MailSource
	classifier service.Classifier
	logger     *slog.Logger
	maxWorkers int
	fetchLimit int
	timeout    time.Duration
}

// Config holds configuration options for the scan engine.
type Config struct {
	MaxWorkers  int
	FetchLimit  int
	ScanTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:  5,
		FetchLimit:  50,
		ScanTimeout: 10 * time.Minute,
	}
}

// New creates a new scan engine with the given dependencies.
func New(store service.Storage, source service.MailSource, classifier service.Classifier, logger *slog.Logger) *ScanEngine {
	return NewWithConfig(store, source, classifier, logger, DefaultConfig())
}

// NewWithConfig creates a new scan engine with custom configuration.
func NewWithConfig(store service.Storage, source service.MailSource, classifier service.Classifier, logger *slog.Logger, config Config) *ScanEngine {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 5
	}
	if config.FetchLimit <= 0 {
		config.FetchLimit = 50
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 10 * time.Minute
	}
	return &ScanEngine{
		storage:    store,
		source:     source,
		classifier: classifier,
		logger:     logger,
		maxWorkers: config.MaxWorkers,
		fetchLimit: config.FetchLimit,
		timeout:    config.ScanTimeout,
	}
}

// ScanOptions tunes a single scan run.
type ScanOptions struct {
	// TimeRange is a lookback token ("auto", "1day", "3days", ...).
	TimeRange string
	// Window overrides TimeRange when set.
	Window time.Duration
	// Limit caps how many messages one scan may fetch.
	Limit int
	// OnProgress, when set, is invoked once per finished message with the
	// running completion count and the batch total.
	OnProgress func(completed, total int)
}

// RunScan scans one user's mailbox and persists a summary per new message.
func (e *ScanEngine) RunScan(ctx context.Context, userID string, opts ScanOptions) (service.ScanReport, error) {
	start := time.Now()
	report := service.ScanReport{UserID: userID}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	token, err := e.storage.GetCredential(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("failed to load credential for %s: %w", userID, err)
	}

	profile := e.loadProfile(ctx, userID)
	window := e.resolveWindow(ctx, userID, opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = e.fetchLimit
	}

	fetched, err := e.source.Fetch(ctx, token, window, limit)
	if err != nil {
		return report, fmt.Errorf("failed to fetch mailbox for %s: %w", userID, err)
	}

	if fetched.RefreshedToken != nil {
		if saveErr := e.storage.SaveCredential(ctx, userID, fetched.RefreshedToken); saveErr != nil {
			e.logger.Error("failed to persist refreshed credential",
				"user_id", userID,
				"error", saveErr)
		}
	}

	report.UsedFallback = fetched.UsedFallback
	report.TotalFound = len(fetched.Messages)

	if report.TotalFound == 0 {
		report.Message = "No emails found in the selected time range."
		report.Duration = time.Since(start)
		return report, nil
	}

	processed, skipped := e.dispatch(ctx, userID, profile, fetched.Messages, opts.OnProgress)
	report.Processed = processed
	report.Skipped = skipped
	report.Duration = time.Since(start)

	switch {
	case report.Processed > 0:
		report.Message = fmt.Sprintf("Scan complete! Found %d email(s). Your dashboard has been updated.", report.TotalFound)
	default:
		report.Message = "Dashboard up to date! No new emails to process."
	}

	e.logger.Info("scan finished",
		"user_id", userID,
		"total_found", report.TotalFound,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"used_fallback", report.UsedFallback,
		"duration", report.Duration)

	return report, nil
}

// dispatch classifies and persists messages on a bounded worker pool. The
// returned counts do not depend on completion order.
func (e *ScanEngine) dispatch(ctx context.Context, userID string, profile *model.PersonaProfile, messages []model.Message, onProgress func(completed, total int)) (processed, skipped int) {
	opts := service.ClassifyOptions{
		AttachmentAnalysis: profile.AttachmentAnalysisEnabled(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for _, msg := range messages {
		wg.Add(1)
		go func(msg model.Message) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			inserted := e.processMessage(ctx, userID, profile, msg, opts)

			mu.Lock()
			if inserted {
				processed++
			} else {
				skipped++
			}
			if onProgress != nil {
				onProgress(processed+skipped, len(messages))
			}
			mu.Unlock()
		}(msg)
	}
	wg.Wait()

	return processed, skipped
}

// processMessage runs one classify-normalize-persist unit. Classification
// errors degrade the result instead of failing the unit; only a duplicate
// or a storage failure reports false.
func (e *ScanEngine) processMessage(ctx context.Context, userID string, profile *model.PersonaProfile, msg model.Message, opts service.ClassifyOptions) bool {
	raw, callErr := e.classifier.Classify(ctx, msg, profile, opts)
	result := normalize.Normalize(raw, callErr)
	if result.APIError {
		e.logger.Warn("classification degraded to fallback result",
			"user_id", userID,
			"message_id", msg.ID)
	}

	summary := model.NewSummary(userID, msg, result)

	// In-flight units finish their write even if the scan deadline fires
	// mid-batch.
	inserted, err := e.storage.SaveSummary(context.WithoutCancel(ctx), summary)
	if err != nil {
		e.logger.Error("failed to save summary",
			"user_id", userID,
			"message_id", msg.ID,
			"error", err)
		return false
	}
	if !inserted {
		e.logger.Debug("summary already exists, skipping",
			"user_id", userID,
			"message_id", msg.ID)
	}
	return inserted
}

// loadProfile resolves the persona, falling back to an empty profile when
// the user has stored credentials but no persona yet.
func (e *ScanEngine) loadProfile(ctx context.Context, userID string) *model.PersonaProfile {
	profile, err := e.storage.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("failed to load profile, using defaults",
				"user_id", userID,
				"error", err)
		}
		return &model.PersonaProfile{UserID: userID, Plan: model.PlanFree}
	}
	return profile
}

// resolveWindow picks the lookback for this run. A user with no stored
// summaries gets the wider first-scan window on auto.
func (e *ScanEngine) resolveWindow(ctx context.Context, userID string, opts ScanOptions) time.Duration {
	if opts.Window > 0 {
		return opts.Window
	}

	window := ResolveWindow(opts.TimeRange)
	if opts.TimeRange != "" && opts.TimeRange != "auto" {
		return window
	}

	count, err := e.storage.CountSummaries(ctx, userID)
	if err != nil {
		e.logger.Warn("failed to count summaries for first-scan check",
			"user_id", userID,
			"error", err)
		return window
	}
	if count == 0 {
		e.logger.Info("first scan for user, widening window",
			"user_id", userID,
			"window", FirstScanWindow)
		return FirstScanWindow
	}
	return window
}

// RunScheduledScanAllUsers scans every user with stored credentials. One
// user's failure never stops the rest; failed users get a report with the
// error message attached.
func (e *ScanEngine) RunScheduledScanAllUsers(ctx context.Context) []service.ScanReport {
	users, err := e.storage.ListUsersWithCredentials(ctx)
	if err != nil {
		e.logger.Error("failed to list users for scheduled scan", "error", err)
		return nil
	}

	reports := make([]service.ScanReport, 0, len(users))
	for _, userID := range users {
		if ctx.Err() != nil {
			e.logger.Warn("scheduled scan interrupted", "remaining_users", len(users)-len(reports))
			break
		}

		report, err := e.RunScan(ctx, userID, ScanOptions{TimeRange: "auto"})
		if err != nil {
			e.logger.Error("scheduled scan failed for user",
				"user_id", userID,
				"error", err)
			report.UserID = userID
			report.Message = fmt.Sprintf("Scan failed: %v", err)
		}
		reports = append(reports, report)
	}
	return reports
}
