// Package types provides type definitions for structured data used throughout the placement-tracker system.
package types

import "time"

// RawMessage is an inbound email exactly as the message source delivered it.
// Immutable once ingested; persisted for audit regardless of pipeline outcome.
type RawMessage struct {
	ExternalID string    `json:"external_id"` // provider message id, unique
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	RawBody    string    `json:"raw_body"` // HTML or plain text
	ReceivedAt time.Time `json:"received_at"`
}

// RemovedSpan records a piece of text the normalizer stripped, for debugging.
type RemovedSpan struct {
	Marker  string `json:"marker"` // which noise pattern matched, e.g. "signature"
	Excerpt string `json:"excerpt"`
}

// NormalizedText is the plain-text derivation of a RawMessage body.
// Ephemeral: recomputed per run, never persisted.
type NormalizedText struct {
	Text         string        `json:"text"`
	RemovedSpans []RemovedSpan `json:"removed_spans,omitempty"`
	Truncated    bool          `json:"truncated"`
}
