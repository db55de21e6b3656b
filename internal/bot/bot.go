// Package bot orchestrates inbound events: retrieval, reply rendering,
// and session recording.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/composer"
	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/retrieval"
	"github.com/medhelm/nursedesk/internal/session"
)

// Event types accepted on the webhook.
const (
	EventText  = "text"
	EventImage = "image"
	EventVideo = "video"
)

// TextEvent builds a text inbound event.
func TextEvent(userID, text string) models.InboundEvent {
	return models.InboundEvent{UserID: userID, Type: EventText, Text: text}
}

// Handler turns inbound events into replies. It owns no transport: the
// webhook layer hands it events and delivers whatever it returns.
type Handler struct {
	engine   *retrieval.Engine
	sessions *session.Store
	composer *composer.Composer
	logger   *zap.Logger
}

// NewHandler wires the bot from its collaborators.
func NewHandler(engine *retrieval.Engine, sessions *session.Store, c *composer.Composer, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, sessions: sessions, composer: c, logger: logger}
}

// HandleEvent processes one inbound event and returns the replies to send.
// Unknown event types are dropped with a warning.
func (h *Handler) HandleEvent(ctx context.Context, event models.InboundEvent) []models.Reply {
	switch event.Type {
	case EventText:
		return h.handleText(ctx, event.UserID, event.Text)
	case EventImage, EventVideo:
		return h.handleMedia(event.UserID, event.Type, event.MediaID)
	default:
		h.logger.Warn("unknown event type", zap.String("type", event.Type))
		return nil
	}
}

func (h *Handler) handleText(ctx context.Context, userID, text string) []models.Reply {
	h.sessions.AppendUserMessage(userID, text)

	result := h.engine.GetResponse(ctx, text)
	var replies []models.Reply
	switch {
	case result == nil:
		replies = []models.Reply{textReply(h.composer.ComposeFallback(text))}
	case result.IsDepartmentListing:
		replies = []models.Reply{textReply(renderListing(result.Department, result.Entries))}
	default:
		replies = renderDocument(result.Document)
	}

	for _, reply := range replies {
		switch reply.Type {
		case EventText:
			h.sessions.AppendBotMessage(userID, reply.Text)
		case EventImage:
			h.sessions.AppendBotMessage(userID, fmt.Sprintf("[image: %s]", reply.ImageURL))
		case EventVideo:
			h.sessions.AppendBotMessage(userID, fmt.Sprintf("[video: %s]", reply.VideoURL))
		}
	}
	return replies
}

func (h *Handler) handleMedia(userID, kind, mediaID string) []models.Reply {
	h.sessions.AppendUserMedia(userID, kind, mediaID)

	reply := textReply(fmt.Sprintf("Thanks! I can't read a %s yet, but I've noted it. Ask me in words and I'll search the knowledge base.", kind))
	h.sessions.AppendBotMessage(userID, reply.Text)
	return []models.Reply{reply}
}

func textReply(text string) models.Reply {
	return models.Reply{ID: uuid.NewString(), Type: EventText, Text: text}
}

// renderDocument turns a knowledge document into a text reply plus any
// media attachments the record carries.
func renderDocument(doc *models.KnowledgeDocument) []models.Reply {
	replies := []models.Reply{textReply(doc.Text)}
	if doc.ImageURL != "" {
		replies = append(replies, models.Reply{
			ID:       uuid.NewString(),
			Type:     EventImage,
			ImageURL: doc.ImageURL,
		})
	}
	if doc.VideoURL != "" {
		replies = append(replies, models.Reply{
			ID:         uuid.NewString(),
			Type:       EventVideo,
			VideoURL:   doc.VideoURL,
			PreviewURL: doc.VideoPreviewURL,
		})
	}
	return replies
}

// renderListing formats a department listing as a single text message.
func renderListing(code string, entries []models.DepartmentEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("The %s department has no entries yet.", code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I have for %s:\n", code)
	for _, entry := range entries {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", entry.Title, entry.Description, entry.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
