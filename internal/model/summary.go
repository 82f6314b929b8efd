package model

import "time"

// Summary is a persisted, deduplicated brief for one email. Rows are
// insert-only; IsRead is the single mutable field.
type Summary struct {
	ID              int64
	UserID          string
	MessageID       string
	Sender          string
	Subject         string
	BodyPreview     string
	Date            string
	Lane            Lane
	Category        Category
	ImportanceScore int
	MatchScore      *float64
	Summary         string
	ActionRequired  string
	Deadlines       string
	RisksLeverage   string
	SenderGoals     string
	UrgencySignals  string
	ReplyDraft      string
	ExtractedInfo   string
	APIError        bool
	DeepLink        string
	IsRead          bool
	CreatedAt       time.Time
}

// NewSummary combines a fetched message with its classification result.
func NewSummary(userID string, msg Message, result ClassificationResult) *Summary {
	return &Summary{
		UserID:          userID,
		MessageID:       msg.ID,
		Sender:          msg.Sender,
		Subject:         msg.Subject,
		BodyPreview:     msg.BodyPreview(),
		Date:            msg.Date,
		Lane:            result.Lane,
		Category:        result.Category,
		ImportanceScore: result.ImportanceScore,
		MatchScore:      result.MatchScore,
		Summary:         result.Summary,
		ActionRequired:  result.ActionRequired,
		Deadlines:       result.Deadlines,
		RisksLeverage:   result.RisksLeverage,
		SenderGoals:     result.SenderGoals,
		UrgencySignals:  result.UrgencySignals,
		ReplyDraft:      result.ReplyDraft,
		ExtractedInfo:   result.ExtractedInfo,
		APIError:        result.APIError,
		DeepLink:        DeepLink(msg.ID),
	}
}

// DeepLink returns the Gmail web URL that opens the message.
func DeepLink(messageID string) string {
	return "https://mail.google.com/mail/u/0/#inbox/" + messageID
}
