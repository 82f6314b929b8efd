package mail

import (
	"encoding/base64"
	"regexp"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/brieflyhq/briefly/internal/model"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// parseMessage converts a hydrated Gmail message into a domain message.
func parseMessage(full *gmail.Message, now time.Time) model.Message {
	msg := model.Message{ID: full.Id}
	if full.Payload == nil {
		msg.Date = now.Format("2006-01-02")
		return msg
	}

	for _, header := range full.Payload.Headers {
		switch header.Name {
		case "Subject":
			msg.Subject = header.Value
		case "From":
			msg.Sender = header.Value
		case "Date":
			msg.RawDate = header.Value
		}
	}

	msg.Date = model.NormalizeDate(msg.RawDate, now)
	msg.Body = extractBody(full.Payload)
	return msg
}

// extractBody walks the MIME tree and returns the first text/plain part,
// falling back to tag-stripped HTML.
func extractBody(payload *gmail.MessagePart) string {
	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	if body := findPart(payload, "text/html"); body != "" {
		return stripHTML(body)
	}
	return ""
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			decoded, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		}
		if err == nil {
			return string(decoded)
		}
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func stripHTML(html string) string {
	text := htmlTagPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	return strings.Join(strings.Fields(text), " ")
}
