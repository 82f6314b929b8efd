// Package model defines the core domain types shared across the application.
package model

import "time"

// PreviewLength is how much of a message body is retained on persisted summaries.
const PreviewLength = 500

// Message is a single email pulled from the user's mailbox, hydrated and
// ready for classification. It is never persisted directly.
type Message struct {
	ID      string
	Sender  string
	Subject string
	Body    string
	Date    string // normalized YYYY-MM-DD
	RawDate string // original Date header, kept for auditing
}

// BodyPreview returns the leading slice of the body stored alongside the
// classification result.
func (m *Message) BodyPreview() string {
	if len(m.Body) <= PreviewLength {
		return m.Body
	}
	return m.Body[:PreviewLength]
}

// NormalizeDate converts an RFC 2822 Date header into YYYY-MM-DD. Headers
// that cannot be parsed fall back to today's date; the raw header survives
// on the message for auditing.
func NormalizeDate(raw string, now time.Time) string {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
		"2 Jan 2006 15:04:05 -0700",
		time.RFC822Z,
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}
