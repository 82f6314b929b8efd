package mail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestParseMessage(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	full := &gmail.Message{
		Id: "msg-1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Quarterly update"},
				{Name: "From", Value: "Jordan Lee <jordan@fund.example>"},
				{Name: "Date", Value: "Tue, 18 Aug 2026 09:15:00 +0200"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: encodeBody("Revenue is up 40%.")},
				},
				{
					MimeType: "text/html",
					Body:     &gmail.MessagePartBody{Data: encodeBody("<p>Revenue is up 40%.</p>")},
				},
			},
		},
	}

	msg := parseMessage(full, now)
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "Quarterly update", msg.Subject)
	assert.Equal(t, "Jordan Lee <jordan@fund.example>", msg.Sender)
	assert.Equal(t, "2026-08-18", msg.Date)
	assert.Equal(t, "Tue, 18 Aug 2026 09:15:00 +0200", msg.RawDate)
	assert.Equal(t, "Revenue is up 40%.", msg.Body)
}

func TestParseMessage_HTMLFallback(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	full := &gmail.Message{
		Id: "msg-html",
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Date", Value: "garbage"},
			},
			Body: &gmail.MessagePartBody{
				Data: encodeBody("<div>Hello &amp; welcome.<br>See&nbsp;you soon.</div>"),
			},
		},
	}

	msg := parseMessage(full, now)
	assert.Equal(t, "Hello & welcome. See you soon.", msg.Body)
	// Unparsable date falls back to today
	assert.Equal(t, "2026-08-23", msg.Date)
}

func TestParseMessage_NestedParts(t *testing.T) {
	now := time.Now()

	full := &gmail.Message{
		Id: "msg-nested",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/plain",
							Body:     &gmail.MessagePartBody{Data: encodeBody("nested body")},
						},
					},
				},
			},
		},
	}

	msg := parseMessage(full, now)
	assert.Equal(t, "nested body", msg.Body)
}

func TestParseMessage_UnpaddedBase64(t *testing.T) {
	full := &gmail.Message{
		Id: "msg-raw",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body: &gmail.MessagePartBody{
				Data: base64.RawURLEncoding.EncodeToString([]byte("unpadded")),
			},
		},
	}

	msg := parseMessage(full, time.Now())
	assert.Equal(t, "unpadded", msg.Body)
}

func TestParseMessage_EmptyPayload(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	msg := parseMessage(&gmail.Message{Id: "msg-empty"}, now)
	assert.Equal(t, "msg-empty", msg.ID)
	assert.Empty(t, msg.Body)
	assert.Equal(t, "2026-08-23", msg.Date)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tags removed", in: "<p>hello <b>world</b></p>", want: "hello world"},
		{name: "entities decoded", in: "a &lt;b&gt; &amp; c", want: "a <b> & c"},
		{name: "whitespace collapsed", in: "<div>\n  spaced\n\n  out  </div>", want: "spaced out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}
