package models

import "time"

// Roles for conversation history entries.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// HistoryEntry is one line of a user's rolling conversation history.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundEvent is one message delivered by the webhook transport.
// Text events carry Text; media events carry MediaID.
type InboundEvent struct {
	UserID  string `json:"userId"`
	Type    string `json:"type"` // "text", "image", "video"
	Text    string `json:"text,omitempty"`
	MediaID string `json:"mediaId,omitempty"`
}

// Reply is one outbound message the bot wants delivered. Rendering it into
// a transport-specific message object is the channel client's job.
type Reply struct {
	ID         string `json:"id"`
	Type       string `json:"type"` // "text", "image", "video"
	Text       string `json:"text,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	VideoURL   string `json:"videoUrl,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}
