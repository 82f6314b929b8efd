package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brieflyhq/briefly/internal/model"
)

// GetProfile retrieves the persona profile for a user.
func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*model.PersonaProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var profile model.PersonaProfile
	var email, role, style, businessContext sql.NullString
	var focusJSON, criticalJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, role, current_focus, critical_categories,
		       communication_style, business_context, plan, is_admin
		FROM profiles
		WHERE user_id = ?
	`, userID).Scan(
		&profile.UserID,
		&email,
		&role,
		&focusJSON,
		&criticalJSON,
		&style,
		&businessContext,
		&profile.Plan,
		&profile.IsAdmin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Email = email.String
	profile.Role = role.String
	profile.CommunicationStyle = style.String
	profile.BusinessContext = businessContext.String

	if err := json.Unmarshal([]byte(focusJSON), &profile.CurrentFocus); err != nil {
		return nil, fmt.Errorf("failed to parse current focus: %w", err)
	}
	if err := json.Unmarshal([]byte(criticalJSON), &profile.CriticalCategories); err != nil {
		return nil, fmt.Errorf("failed to parse critical categories: %w", err)
	}

	return &profile, nil
}

// SaveProfile upserts a persona profile. Credentials are managed separately
// and survive profile updates.
func (s *SQLiteStorage) SaveProfile(ctx context.Context, profile *model.PersonaProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	if profile.Plan == "" {
		profile.Plan = model.PlanFree
	}

	focusJSON, err := json.Marshal(profile.CurrentFocus)
	if err != nil {
		return fmt.Errorf("failed to marshal current focus: %w", err)
	}
	criticalJSON, err := json.Marshal(profile.CriticalCategories)
	if err != nil {
		return fmt.Errorf("failed to marshal critical categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (
			user_id, email, role, current_focus, critical_categories,
			communication_style, business_context, plan, is_admin, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			role = excluded.role,
			current_focus = excluded.current_focus,
			critical_categories = excluded.critical_categories,
			communication_style = excluded.communication_style,
			business_context = excluded.business_context,
			plan = excluded.plan,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at
	`,
		profile.UserID,
		profile.Email,
		profile.Role,
		string(focusJSON),
		string(criticalJSON),
		profile.CommunicationStyle,
		profile.BusinessContext,
		profile.Plan,
		profile.IsAdmin,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ListUsersWithCredentials returns the IDs of users eligible for scheduled
// scans, meaning they have a stored Gmail credential.
func (s *SQLiteStorage) ListUsersWithCredentials(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM profiles
		WHERE gmail_credentials IS NOT NULL AND gmail_credentials != ''
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}
