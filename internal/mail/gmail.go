package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/placement-tracker/internal/types"
)

// DefaultQuery narrows backfill to the inbox; the gate handles relevance.
const DefaultQuery = "in:inbox"

const gmailUser = "me"

// GmailSource reads messages from a Gmail mailbox. The cursor is the
// mailbox historyId, which Gmail guarantees to be monotonically increasing.
type GmailSource struct {
	svc   *gmail.Service
	query string
}

// NewGmailSource builds a Source over the Gmail API. Credentials come in
// through client options (token source, credentials file).
func NewGmailSource(ctx context.Context, query string, opts ...option.ClientOption) (*GmailSource, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	if query == "" {
		query = DefaultQuery
	}
	return &GmailSource{svc: svc, query: query}, nil
}

// Backfill lists recent messages matching the query and anchors the cursor
// at the mailbox's current historyId, so the next Since call picks up
// exactly where this fetch left off.
func (g *GmailSource) Backfill(ctx context.Context, limit int64) (Delta, error) {
	profile, err := g.svc.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return Delta{}, fmt.Errorf("failed to get mailbox profile: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}
	list, err := g.svc.Users.Messages.List(gmailUser).Q(g.query).MaxResults(limit).Context(ctx).Do()
	if err != nil {
		return Delta{}, fmt.Errorf("failed to list messages: %w", err)
	}

	delta := Delta{Position: strconv.FormatUint(profile.HistoryId, 10)}
	for _, m := range list.Messages {
		msg, err := g.fetch(ctx, m.Id)
		if err != nil {
			return Delta{}, err
		}
		delta.Messages = append(delta.Messages, msg)
	}
	return delta, nil
}

// Since lists messages added after the given historyId cursor. Gmail expires
// history after about a week; an expired cursor surfaces as an API error and
// the caller falls back to Backfill.
func (g *GmailSource) Since(ctx context.Context, cursor string) (Delta, error) {
	start, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return Delta{}, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}

	delta := Delta{Position: cursor}
	seen := map[string]bool{}
	pageToken := ""
	for {
		call := g.svc.Users.History.List(gmailUser).
			StartHistoryId(start).
			HistoryTypes("messageAdded").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return Delta{}, fmt.Errorf("failed to list history from %s: %w", cursor, err)
		}

		if resp.HistoryId > 0 {
			delta.Position = strconv.FormatUint(resp.HistoryId, 10)
		}
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message == nil || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				msg, err := g.fetch(ctx, added.Message.Id)
				if err != nil {
					return Delta{}, err
				}
				delta.Messages = append(delta.Messages, msg)
			}
		}

		if resp.NextPageToken == "" {
			return delta, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (g *GmailSource) fetch(ctx context.Context, id string) (types.RawMessage, error) {
	full, err := g.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return types.RawMessage{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return convertMessage(full), nil
}

func convertMessage(m *gmail.Message) types.RawMessage {
	msg := types.RawMessage{
		ExternalID: m.Id,
		ReceivedAt: time.UnixMilli(m.InternalDate).UTC(),
	}
	if m.Payload == nil {
		return msg
	}
	for _, h := range m.Payload.Headers {
		switch h.Name {
		case "Subject":
			msg.Subject = h.Value
		case "From":
			msg.Sender = h.Value
		}
	}
	msg.RawBody = extractBody(m.Payload)
	return msg
}

// extractBody walks the MIME tree and concatenates every text part, the
// same way the mailbox renders multipart/alternative bodies.
func extractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if len(part.Parts) > 0 {
		var body string
		for _, p := range part.Parts {
			body += extractBody(p)
		}
		return body
	}
	switch part.MimeType {
	case "text/html", "text/plain":
		if part.Body == nil || part.Body.Data == "" {
			return ""
		}
		return decodeBase64URL(part.Body.Data)
	}
	return ""
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}
