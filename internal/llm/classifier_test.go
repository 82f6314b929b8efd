package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/service"
)

// mockProvider is a test implementation of the Client interface.
type mockProvider struct {
	responses []string
	errors    []error
	prompts   []string
	calls     int
	mu        sync.Mutex
}

func (m *mockProvider) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	callIdx := m.calls
	m.calls++
	m.prompts = append(m.prompts, userPrompt)

	if callIdx < len(m.errors) && m.errors[callIdx] != nil {
		return "", m.errors[callIdx]
	}
	if callIdx < len(m.responses) {
		return m.responses[callIdx], nil
	}
	return "", fmt.Errorf("no more mock responses (call %d)", callIdx)
}

func newTestClassifier(client Client, maxAttempts int) *Classifier {
	return &Classifier{
		client:      client,
		logger:      slog.Default(),
		rateLimiter: newRateLimiter(600),
		retryOpts: service.RetryOptions{
			MaxAttempts:  maxAttempts,
			InitialDelay: time.Millisecond,
			MaxDelay:     10 * time.Millisecond,
			Multiplier:   2.0,
		},
	}
}

func TestNewClassifier(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid gemini config",
			config: Config{
				Provider: "gemini",
				APIKey:   "test-key",
			},
			wantErr: false,
		},
		{
			name: "empty provider defaults to gemini",
			config: Config{
				APIKey: "test-key",
			},
			wantErr: false,
		},
		{
			name: "valid openai config",
			config: Config{
				Provider: "openai",
				APIKey:   "test-key",
			},
			wantErr: false,
		},
		{
			name: "unsupported provider",
			config: Config{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantErr: true,
			errMsg:  "unsupported LLM provider: unknown",
		},
		{
			name: "missing api key for gemini",
			config: Config{
				Provider: "gemini",
			},
			wantErr: true,
			errMsg:  "Gemini API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier, err := NewClassifier(tt.config, logger)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NotNil(t, classifier)
				classifier.Close()
			}
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()

	msg := model.Message{
		ID:      "msg-123",
		Sender:  "founder@startup.example",
		Subject: "Term sheet",
		Body:    "Please review the attached term sheet.",
		Date:    "2026-08-20",
	}
	profile := &model.PersonaProfile{Role: "angel investor"}

	tests := []struct {
		name          string
		mockResponses []string
		mockErrors    []error
		want          string
		expectedCalls int
		expectError   bool
	}{
		{
			name:          "successful classification",
			mockResponses: []string{`{"matches_user_profile": true}`},
			want:          `{"matches_user_profile": true}`,
			expectedCalls: 1,
		},
		{
			name:          "code fences stripped",
			mockResponses: []string{"```json\n{\"matches_user_profile\": true}\n```"},
			want:          `{"matches_user_profile": true}`,
			expectedCalls: 1,
		},
		{
			name:          "retry on failure then success",
			mockResponses: []string{"", `{"ok": true}`},
			mockErrors:    []error{fmt.Errorf("temporary error"), nil},
			want:          `{"ok": true}`,
			expectedCalls: 2,
		},
		{
			name: "all retries fail",
			mockErrors: []error{
				fmt.Errorf("error 1"),
				fmt.Errorf("error 2"),
				fmt.Errorf("error 3"),
			},
			expectError:   true,
			expectedCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockProvider{
				responses: tt.mockResponses,
				errors:    tt.mockErrors,
			}
			classifier := newTestClassifier(mock, 3)
			defer classifier.Close()

			raw, err := classifier.Classify(ctx, msg, profile, service.ClassifyOptions{})

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, raw)
			}
			assert.Equal(t, tt.expectedCalls, mock.calls)
		})
	}
}

func TestClassifier_DraftReply(t *testing.T) {
	mock := &mockProvider{responses: []string{"Thanks, I will review and respond by Friday."}}
	classifier := newTestClassifier(mock, 3)
	defer classifier.Close()

	msg := model.Message{Sender: "a@b.c", Subject: "Intro", Body: "Hello"}
	draft, err := classifier.DraftReply(context.Background(), msg, &model.PersonaProfile{})
	require.NoError(t, err)
	assert.Equal(t, "Thanks, I will review and respond by Friday.", draft)
}

func TestBuildClassifyPrompt(t *testing.T) {
	msg := model.Message{
		ID:      "msg-1",
		Sender:  "ceo@acme.example",
		Subject: "Q3 numbers",
		Body:    "Revenue is up 40%.",
		Date:    "2026-08-19",
	}

	tests := []struct {
		name        string
		profile     *model.PersonaProfile
		attachments bool
		contains    []string
	}{
		{
			name: "full profile",
			profile: &model.PersonaProfile{
				Role:               "venture partner",
				CurrentFocus:       []string{"fintech", "devtools"},
				CriticalCategories: []string{"term sheets"},
				CommunicationStyle: "direct",
				BusinessContext:    "early stage investing",
			},
			attachments: true,
			contains: []string{
				"Role: venture partner",
				"Current focus: fintech, devtools",
				"Critical categories: term sheets",
				"From: ceo@acme.example",
				"Subject: Q3 numbers",
				"[ENABLED]",
				"matches_user_profile",
			},
		},
		{
			name:        "empty profile gets defaults",
			profile:     &model.PersonaProfile{},
			attachments: false,
			contains: []string{
				"Role: busy professional",
				"Current focus: none specified",
				"[DISABLED]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildClassifyPrompt(msg, tt.profile, tt.attachments)
			for _, expected := range tt.contains {
				assert.Contains(t, prompt, expected)
			}
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "no fence", in: `{"a":1}`, want: `{"a":1}`},
		{name: "whitespace", in: "  {\"a\":1}  ", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.in))
		})
	}
}
