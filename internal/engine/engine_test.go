package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/brieflyhq/briefly/internal/crypto"
	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/service"
	"github.com/brieflyhq/briefly/internal/storage"
)

// mockSource replays canned fetch results in order.
type mockSource struct {
	results []*service.FetchResult
	errs    []error
	windows []time.Duration
	calls   int
	mu      sync.Mutex
}

func (m *mockSource) Fetch(_ context.Context, _ *oauth2.Token, window time.Duration, _ int) (*service.FetchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.windows = append(m.windows, window)

	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.results) {
		return m.results[idx], nil
	}
	return &service.FetchResult{}, nil
}

// mockClassifier returns canned raw responses keyed by message ID.
type mockClassifier struct {
	responses map[string]string
	errors    map[string]error
	mu        sync.Mutex
	calls     int
}

func (m *mockClassifier) Classify(_ context.Context, msg model.Message, _ *model.PersonaProfile, _ service.ClassifyOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err, ok := m.errors[msg.ID]; ok {
		return "", err
	}
	if resp, ok := m.responses[msg.ID]; ok {
		return resp, nil
	}
	return `{"matches_user_profile": false, "importance_level": "LOW"}`, nil
}

func (m *mockClassifier) DraftReply(_ context.Context, _ model.Message, _ *model.PersonaProfile) (string, error) {
	return "draft", nil
}

func newEngineStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	cipher, err := crypto.NewCipher("engine-test-key")
	require.NoError(t, err)
	store, err := storage.NewSQLiteStorage(":memory:", cipher)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *storage.SQLiteStorage, userID string) {
	t.Helper()
	require.NoError(t, store.SaveCredential(context.Background(), userID, &oauth2.Token{AccessToken: "tok-" + userID}))
}

func message(id, subject string) model.Message {
	return model.Message{
		ID:      id,
		Sender:  "sender@example.com",
		Subject: subject,
		Body:    "body of " + id,
		Date:    "2026-08-21",
	}
}

func TestRunScan_MixedBatch(t *testing.T) {
	store := newEngineStorage(t)
	ctx := context.Background()
	seedUser(t, store, "user-1")

	// Message C already has a summary from a previous scan
	dup := model.NewSummary("user-1", message("msg-c", "old news"),
		model.ClassificationResult{
			Lane:            model.LaneOther,
			Category:        model.CategoryLow,
			ImportanceScore: 2,
			Summary:         "seen before",
			ExtractedInfo:   "{}",
		})
	inserted, err := store.SaveSummary(ctx, dup)
	require.NoError(t, err)
	require.True(t, inserted)

	source := &mockSource{results: []*service.FetchResult{{
		Messages: []model.Message{
			message("msg-a", "Term sheet"),
			message("msg-b", "Newsletter"),
			message("msg-c", "old news"),
		},
	}}}

	classifier := &mockClassifier{
		responses: map[string]string{
			"msg-a": `{"matches_user_profile": true, "importance_level": "CRITICAL", "importance_score": 9, "match_score": 91, "executive_summary": "Lead investor sent a term sheet"}`,
		},
		errors: map[string]error{
			"msg-b": errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"),
		},
	}

	eng := New(store, source, classifier, slog.Default())
	report, err := eng.RunScan(ctx, "user-1", ScanOptions{TimeRange: "1day"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalFound)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Contains(t, report.Message, "Scan complete!")

	stored, err := store.ListSummaries(ctx, "user-1", service.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	byID := make(map[string]model.Summary, len(stored))
	for _, s := range stored {
		byID[s.MessageID] = s
	}

	// Clean classification persisted as-is
	a := byID["msg-a"]
	assert.Equal(t, model.LanePriority, a.Lane)
	assert.Equal(t, model.CategoryCritical, a.Category)
	assert.False(t, a.APIError)
	require.NotNil(t, a.MatchScore)
	assert.InDelta(t, 91.0, *a.MatchScore, 0.001)

	// Quota failure degraded but still persisted and counted as processed
	b := byID["msg-b"]
	assert.True(t, b.APIError)
	assert.Equal(t, model.LaneOther, b.Lane)
	assert.Equal(t, model.CategoryLow, b.Category)
	assert.Contains(t, b.Summary, "quota")

	// Duplicate untouched
	c := byID["msg-c"]
	assert.Equal(t, "seen before", c.Summary)
}

func TestRunScan_NoMessages(t *testing.T) {
	store := newEngineStorage(t)
	seedUser(t, store, "user-1")

	source := &mockSource{results: []*service.FetchResult{{UsedFallback: true}}}
	eng := New(store, source, &mockClassifier{}, slog.Default())

	report, err := eng.RunScan(context.Background(), "user-1", ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalFound)
	assert.Equal(t, 0, report.Processed)
	assert.True(t, report.UsedFallback)
	assert.Equal(t, "No emails found in the selected time range.", report.Message)
}

func TestRunScan_MissingCredential(t *testing.T) {
	store := newEngineStorage(t)
	eng := New(store, &mockSource{}, &mockClassifier{}, slog.Default())

	_, err := eng.RunScan(context.Background(), "ghost", ScanOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNoCredential)
}

func TestRunScan_CountsIndependentOfCompletionOrder(t *testing.T) {
	store := newEngineStorage(t)
	ctx := context.Background()
	seedUser(t, store, "user-1")

	var messages []model.Message
	for i := 0; i < 40; i++ {
		messages = append(messages, message(fmt.Sprintf("msg-%02d", i), "bulk"))
	}
	source := &mockSource{results: []*service.FetchResult{{Messages: messages}}}

	eng := New(store, source, &mockClassifier{}, slog.Default())
	report, err := eng.RunScan(ctx, "user-1", ScanOptions{TimeRange: "1day", Limit: 50})
	require.NoError(t, err)

	assert.Equal(t, 40, report.TotalFound)
	assert.Equal(t, 40, report.Processed)
	assert.Equal(t, 0, report.Skipped)

	// A second identical scan skips everything
	source.mu.Lock()
	source.calls = 0
	source.mu.Unlock()
	report, err = eng.RunScan(ctx, "user-1", ScanOptions{TimeRange: "1day", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 40, report.TotalFound)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 40, report.Skipped)
	assert.Equal(t, "Dashboard up to date! No new emails to process.", report.Message)
}

func TestRunScan_RefreshedTokenPersisted(t *testing.T) {
	store := newEngineStorage(t)
	ctx := context.Background()
	seedUser(t, store, "user-1")

	source := &mockSource{results: []*service.FetchResult{{
		RefreshedToken: &oauth2.Token{AccessToken: "fresh-token"},
	}}}
	eng := New(store, source, &mockClassifier{}, slog.Default())

	_, err := eng.RunScan(ctx, "user-1", ScanOptions{})
	require.NoError(t, err)

	token, err := store.GetCredential(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token.AccessToken)
}

func TestRunScan_FirstScanWidensWindow(t *testing.T) {
	store := newEngineStorage(t)
	ctx := context.Background()
	seedUser(t, store, "user-1")

	source := &mockSource{results: []*service.FetchResult{
		{Messages: []model.Message{message("msg-1", "first")}},
		{},
	}}
	eng := New(store, source, &mockClassifier{}, slog.Default())

	_, err := eng.RunScan(ctx, "user-1", ScanOptions{TimeRange: "auto"})
	require.NoError(t, err)
	require.Len(t, source.windows, 1)
	assert.Equal(t, FirstScanWindow, source.windows[0])

	// Once summaries exist, auto means the default window
	_, err = eng.RunScan(ctx, "user-1", ScanOptions{TimeRange: "auto"})
	require.NoError(t, err)
	require.Len(t, source.windows, 2)
	assert.Equal(t, DefaultWindow, source.windows[1])
}

func TestRunScan_ExplicitRangeSkipsFirstScanBoost(t *testing.T) {
	store := newEngineStorage(t)
	seedUser(t, store, "user-1")

	source := &mockSource{results: []*service.FetchResult{{}}}
	eng := New(store, source, &mockClassifier{}, slog.Default())

	_, err := eng.RunScan(context.Background(), "user-1", ScanOptions{TimeRange: "3days"})
	require.NoError(t, err)
	require.Len(t, source.windows, 1)
	assert.Equal(t, 3*24*time.Hour, source.windows[0])
}

func TestRunScheduledScanAllUsers_IsolatesFailures(t *testing.T) {
	store := newEngineStorage(t)
	ctx := context.Background()
	seedUser(t, store, "user-a")
	seedUser(t, store, "user-b")

	// First user's fetch blows up; second user succeeds
	source := &mockSource{
		errs: []error{errors.New("mailbox unavailable"), nil},
		results: []*service.FetchResult{
			nil,
			{Messages: []model.Message{message("msg-1", "hello")}},
		},
	}
	eng := New(store, source, &mockClassifier{}, slog.Default())

	reports := eng.RunScheduledScanAllUsers(ctx)
	require.Len(t, reports, 2)

	assert.Equal(t, "user-a", reports[0].UserID)
	assert.Contains(t, reports[0].Message, "Scan failed")

	assert.Equal(t, "user-b", reports[1].UserID)
	assert.Equal(t, 1, reports[1].Processed)
}

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		token string
		want  time.Duration
	}{
		{token: "", want: DefaultWindow},
		{token: "auto", want: DefaultWindow},
		{token: "2hours", want: 2 * time.Hour},
		{token: "1day", want: 24 * time.Hour},
		{token: "3days", want: 3 * 24 * time.Hour},
		{token: "7days", want: 7 * 24 * time.Hour},
		{token: "30days", want: 30 * 24 * time.Hour},
		{token: "fortnight", want: DefaultWindow},
	}

	for _, tt := range tests {
		t.Run("token_"+tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveWindow(tt.token))
		})
	}
}
