package mail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestConvertMessage(t *testing.T) {
	m := &gmail.Message{
		Id:           "abc123",
		InternalDate: 1765400000000,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Placement Cell <placements@college.edu>"},
				{Name: "Subject", Value: "|| Flipkart || Campus Drive"},
			},
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain body\n")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>html body</p>")}},
				{MimeType: "image/png", Body: &gmail.MessagePartBody{Data: b64("binary")}},
			},
		},
	}

	msg := convertMessage(m)

	assert.Equal(t, "abc123", msg.ExternalID)
	assert.Equal(t, "Placement Cell <placements@college.edu>", msg.Sender)
	assert.Equal(t, "|| Flipkart || Campus Drive", msg.Subject)
	assert.Contains(t, msg.RawBody, "plain body")
	assert.Contains(t, msg.RawBody, "<p>html body</p>")
	assert.NotContains(t, msg.RawBody, "binary")
	assert.Equal(t, 2025, msg.ReceivedAt.Year())
}

func TestExtractBodyNestedParts(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("nested")}},
				},
			},
		},
	}
	assert.Equal(t, "nested", extractBody(part))
	assert.Equal(t, "", extractBody(nil))
}

func TestDecodeBase64URLWithoutPadding(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("unpadded"))
	assert.Equal(t, "unpadded", decodeBase64URL(raw))
	assert.Equal(t, "", decodeBase64URL("%%%"))
}
