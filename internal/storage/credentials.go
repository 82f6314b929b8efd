package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// GetCredential retrieves and decrypts a user's OAuth token. Rows written
// before encryption was introduced are accepted as plain JSON.
func (s *SQLiteStorage) GetCredential(ctx context.Context, userID string) (*oauth2.Token, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var payload sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT gmail_credentials FROM profiles WHERE user_id = ?
	`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoCredential, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	if !payload.Valid || payload.String == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCredential, userID)
	}

	tokenJSON, err := s.cipher.Decrypt(payload.String)
	if err != nil {
		// Legacy plaintext row
		tokenJSON = payload.String
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}
	return &token, nil
}

// SaveCredential encrypts and stores a user's OAuth token, creating the
// profile row if it does not exist yet.
func (s *SQLiteStorage) SaveCredential(ctx context.Context, userID string, token *oauth2.Token) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: token", ErrNilParameter)
	}

	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	sealed, err := s.cipher.Encrypt(string(tokenJSON))
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, gmail_credentials, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			gmail_credentials = excluded.gmail_credentials,
			updated_at = excluded.updated_at
	`, userID, sealed, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}
