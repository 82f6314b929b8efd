package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/service"
)

// SaveSummary inserts a summary if no row exists for (user, message).
// Returns true when a new row was written. A duplicate found either by the
// existence check or by the unique constraint reports (false, nil); the
// constraint is the backstop for concurrent writers.
func (s *SQLiteStorage) SaveSummary(ctx context.Context, summary *model.Summary) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateSummary(summary); err != nil {
		return false, err
	}

	exists, err := s.SummaryExists(ctx, summary.UserID, summary.MessageID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	if summary.DeepLink == "" {
		summary.DeepLink = model.DeepLink(summary.MessageID)
	}
	if summary.ExtractedInfo == "" {
		summary.ExtractedInfo = "{}"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (
			user_id, msg_id, sender, subject, body_preview, date,
			lane, category, importance_score, match_score,
			summary, action_required, deadlines, risks_leverage,
			sender_goals, urgency_signals, reply_draft, extracted_info,
			api_error, deep_link, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`,
		summary.UserID,
		summary.MessageID,
		summary.Sender,
		summary.Subject,
		summary.BodyPreview,
		summary.Date,
		string(summary.Lane),
		string(summary.Category),
		summary.ImportanceScore,
		summary.MatchScore,
		summary.Summary,
		summary.ActionRequired,
		summary.Deadlines,
		summary.RisksLeverage,
		summary.SenderGoals,
		summary.UrgencySignals,
		summary.ReplyDraft,
		summary.ExtractedInfo,
		summary.APIError,
		summary.DeepLink,
		summary.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			// Lost a race with a concurrent writer; the row exists now.
			return false, nil
		}
		return false, fmt.Errorf("failed to save summary: %w", err)
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		summary.ID = id
	}
	return true, nil
}

// SummaryExists reports whether a summary row exists for the message.
func (s *SQLiteStorage) SummaryExists(ctx context.Context, userID, messageID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return false, err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM summaries WHERE user_id = ? AND msg_id = ?)
	`, userID, messageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check summary existence: %w", err)
	}
	return exists, nil
}

// CountSummaries returns the number of summaries stored for a user.
func (s *SQLiteStorage) CountSummaries(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return count, nil
}

// ListSummaries retrieves summaries for a user, newest first.
func (s *SQLiteStorage) ListSummaries(ctx context.Context, userID string, filter service.SummaryFilter) ([]model.Summary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, msg_id, sender, subject, body_preview, date,
		       lane, category, importance_score, match_score,
		       summary, action_required, deadlines, risks_leverage,
		       sender_goals, urgency_signals, reply_draft, extracted_info,
		       api_error, deep_link, is_read, created_at
		FROM summaries
		WHERE user_id = ?`
	args := []any{userID}

	if filter.Lane != "" {
		query += " AND lane = ?"
		args = append(args, string(filter.Lane))
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.UnreadOnly {
		query += " AND is_read = 0"
	}

	query += " ORDER BY importance_score DESC, created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.Summary
	for rows.Next() {
		var sum model.Summary
		var lane, category string
		var matchScore sql.NullFloat64

		err := rows.Scan(
			&sum.ID,
			&sum.UserID,
			&sum.MessageID,
			&sum.Sender,
			&sum.Subject,
			&sum.BodyPreview,
			&sum.Date,
			&lane,
			&category,
			&sum.ImportanceScore,
			&matchScore,
			&sum.Summary,
			&sum.ActionRequired,
			&sum.Deadlines,
			&sum.RisksLeverage,
			&sum.SenderGoals,
			&sum.UrgencySignals,
			&sum.ReplyDraft,
			&sum.ExtractedInfo,
			&sum.APIError,
			&sum.DeepLink,
			&sum.IsRead,
			&sum.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}

		sum.Lane = model.Lane(lane)
		sum.Category = model.Category(category)
		if matchScore.Valid {
			v := matchScore.Float64
			sum.MatchScore = &v
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// MarkSummaryRead flags a summary as read.
func (s *SQLiteStorage) MarkSummaryRead(ctx context.Context, userID, messageID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE summaries SET is_read = 1 WHERE user_id = ? AND msg_id = ?
	`, userID, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark summary read: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: summary %s for user %s", ErrNotFound, messageID, userID)
	}
	return nil
}
