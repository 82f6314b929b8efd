package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/brieflyhq/briefly/internal/model"
)

func TestProfileRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	profile := &model.PersonaProfile{
		UserID:             "user-1",
		Email:              "jordan@fund.example",
		Role:               "venture partner",
		CurrentFocus:       []string{"fintech", "devtools"},
		CriticalCategories: []string{"term sheets", "LP updates"},
		CommunicationStyle: "direct",
		BusinessContext:    "early stage investing",
		Plan:               model.PlanPro,
	}
	require.NoError(t, store.SaveProfile(ctx, profile))

	got, err := store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile.Email, got.Email)
	assert.Equal(t, profile.Role, got.Role)
	assert.Equal(t, profile.CurrentFocus, got.CurrentFocus)
	assert.Equal(t, profile.CriticalCategories, got.CriticalCategories)
	assert.Equal(t, model.PlanPro, got.Plan)
	assert.True(t, got.AttachmentAnalysisEnabled())

	// Update keeps the same row
	profile.Plan = model.PlanFree
	require.NoError(t, store.SaveProfile(ctx, profile))
	got, err = store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, got.Plan)
	assert.False(t, got.AttachmentAnalysisEnabled())
}

func TestGetProfile_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProfile_Validation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	err := store.SaveProfile(ctx, &model.PersonaProfile{})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	err = store.SaveProfile(ctx, &model.PersonaProfile{UserID: "u", Plan: "platinum"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	err = store.SaveProfile(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)
}

func TestCredentialRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	token := &oauth2.Token{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.SaveCredential(ctx, "user-1", token))

	got, err := store.GetCredential(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, got.AccessToken)
	assert.Equal(t, token.RefreshToken, got.RefreshToken)

	// The column must not hold the token in the clear
	var raw string
	err = store.db.QueryRowContext(ctx, `SELECT gmail_credentials FROM profiles WHERE user_id = ?`, "user-1").Scan(&raw)
	require.NoError(t, err)
	assert.NotContains(t, raw, "ya29.access")
}

func TestGetCredential_Missing(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.GetCredential(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNoCredential)

	// Profile without credentials behaves the same
	require.NoError(t, store.SaveProfile(ctx, &model.PersonaProfile{UserID: "user-1"}))
	_, err = store.GetCredential(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestGetCredential_LegacyPlaintext(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	plain, err := json.Marshal(&oauth2.Token{AccessToken: "legacy-token"})
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, gmail_credentials) VALUES (?, ?)
	`, "user-legacy", string(plain))
	require.NoError(t, err)

	got, err := store.GetCredential(ctx, "user-legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", got.AccessToken)
}

func TestListUsersWithCredentials(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProfile(ctx, &model.PersonaProfile{UserID: "no-creds"}))
	require.NoError(t, store.SaveCredential(ctx, "user-b", &oauth2.Token{AccessToken: "b"}))
	require.NoError(t, store.SaveCredential(ctx, "user-a", &oauth2.Token{AccessToken: "a"}))

	users, err := store.ListUsersWithCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-a", "user-b"}, users)
}

func TestCredentialSurvivesProfileUpdate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCredential(ctx, "user-1", &oauth2.Token{AccessToken: "keep-me"}))
	require.NoError(t, store.SaveProfile(ctx, &model.PersonaProfile{UserID: "user-1", Role: "founder"}))

	got, err := store.GetCredential(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "keep-me", got.AccessToken)
}
