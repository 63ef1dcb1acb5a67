/*
Package chat contains the real-time delivery core.

This file implements the message router: decoded inbound events are
dispatched to handlers that persist state through the external collaborators
and then deliver the result. Direct replies to the sender (acknowledgments,
errors) are kept distinct from the peer fan-out; chat content never echoes
back to its own author, while acks must reach the uploader even when nobody
else is connected.
*/
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"shambachat/internal/app/store"
	"shambachat/internal/app/user"
	"shambachat/internal/pkg/errs"
	"shambachat/internal/pkg/logx"
)

// MessageStore is the persistence collaborator for the router.
type MessageStore interface {
	CreateMessage(ctx context.Context, p store.CreateMessageParams) (*store.Message, error)
	FindMediaByID(ctx context.Context, id string) (*store.Media, error)
}

// MediaURLResolver produces time-limited download URLs for stored media
// objects that do not carry a directly servable address.
type MediaURLResolver interface {
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// Router decodes inbound frames and drives the handlers.
type Router struct {
	store      MessageStore
	media      MediaURLResolver
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewRouter builds a Router over the given collaborators.
func NewRouter(messageStore MessageStore, media MediaURLResolver, dispatcher *Dispatcher) *Router {
	return &Router{
		store:      messageStore,
		media:      media,
		dispatcher: dispatcher,
		logger:     logx.Logger().With().Str("component", "router").Logger(),
	}
}

// Route handles one inbound frame from principal on threadID. Direct
// replies go to sender; peer deliveries go through the dispatcher. A
// malformed frame is dropped with a log entry and no reply, so one bad
// frame never kills an otherwise healthy session.
func (rt *Router) Route(ctx context.Context, principal user.Principal, threadID int64, frame []byte, sender Handle) {
	ev, err := DecodeInbound(frame)
	if err != nil {
		rt.logger.Warn().Err(err).
			Int64("thread_id", threadID).
			Int64("user_id", principal.ID).
			Msg("Dropping undecodable frame")
		return
	}

	switch ev.Kind {
	case EventMessageNew:
		rt.handleMessageNew(ctx, principal, threadID, ev, sender)

	case EventMediaReference:
		rt.handleMediaReference(ctx, principal, threadID, ev, sender)

	case EventTypingStart, EventTypingStop:
		// Ephemeral, peers only, never persisted.
		rt.dispatcher.Dispatch(threadID, principal.ID, TypingPayload{
			Type: ev.RawType,
			User: principal.ID,
		})

	case EventMediaAck:
		rt.logger.Info().
			Int64("thread_id", threadID).
			Str("media_id", ev.MediaID).
			Str("status", ev.AckStatus).
			Msg("Client media acknowledgment")

	case EventUnknown:
		rt.logger.Warn().
			Int64("thread_id", threadID).
			Str("msg_type", ev.RawType).
			Msg("Unknown message type")
	}
}

// handleMessageNew persists a text message and fans the rendered payload
// out to the sender's peers.
func (rt *Router) handleMessageNew(ctx context.Context, principal user.Principal, threadID int64, ev InboundEvent, sender Handle) {
	msg, err := rt.store.CreateMessage(ctx, store.CreateMessageParams{
		ThreadID: threadID,
		SenderID: principal.ID,
		Text:     ev.Text,
	})
	if err != nil {
		rt.logger.Error().Err(err).
			Int64("thread_id", threadID).
			Msg("Failed to persist message")
		rt.replyError(sender, errs.CodePersistFailed, "Message could not be saved. Please try again.", nil)
		return
	}

	rt.dispatcher.Dispatch(threadID, principal.ID, MessagePayload{
		Type:      "message_new",
		ID:        msg.ID,
		Text:      msg.Text,
		Sender:    principal.ID,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	})
}

// handleMediaReference persists a message referencing an uploaded media
// object, acknowledges receipt directly to the sender, and fans the message
// out to peers. The ack must reach the uploader even when they are the only
// participant currently connected.
func (rt *Router) handleMediaReference(ctx context.Context, principal user.Principal, threadID int64, ev InboundEvent, sender Handle) {
	if ev.MediaID == "" {
		rt.logger.Warn().
			Int64("thread_id", threadID).
			Msg("Media reference without media_id")
		rt.replyError(sender, errs.CodeInvalidMedia, "No media_id provided", nil)
		return
	}

	mediaURL := rt.resolveMediaURL(ctx, threadID, ev)

	msg, err := rt.store.CreateMessage(ctx, store.CreateMessageParams{
		ThreadID: threadID,
		SenderID: principal.ID,
		Text:     ev.Text,
		MediaID:  ev.MediaID,
	})
	if err != nil {
		rt.logger.Error().Err(err).
			Int64("thread_id", threadID).
			Str("media_id", ev.MediaID).
			Msg("Failed to persist media message")
		rt.replyError(sender, errs.CodePersistFailed, "Message could not be saved. Please try again.", map[string]any{
			"media_id": ev.MediaID,
		})
		return
	}

	rt.reply(sender, MediaAckPayload{
		MediaID:   ev.MediaID,
		Status:    "received",
		Success:   true,
		MessageID: msg.ID,
	})

	rt.dispatcher.Dispatch(threadID, principal.ID, MessagePayload{
		Type:      "message_new",
		ID:        msg.ID,
		Text:      msg.Text,
		Sender:    principal.ID,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		MediaID:   ev.MediaID,
		MediaURL:  mediaURL,
		HasMedia:  true,
	})
}

// resolveMediaURL returns the servable URL for the referenced media: the
// inline URL when the client supplied one, the stored public URL, or a
// presigned download. Resolution failures degrade to an empty URL; the
// message still persists and clients fall back to fetching by media id.
func (rt *Router) resolveMediaURL(ctx context.Context, threadID int64, ev InboundEvent) string {
	if ev.MediaURL != "" {
		return ev.MediaURL
	}

	media, err := rt.store.FindMediaByID(ctx, ev.MediaID)
	if err != nil {
		rt.logger.Error().Err(err).
			Str("media_id", ev.MediaID).
			Msg("Media lookup failed")
		return ""
	}
	if media == nil {
		rt.logger.Warn().
			Int64("thread_id", threadID).
			Str("media_id", ev.MediaID).
			Msg("Referenced media not found")
		return ""
	}

	if media.URL != "" {
		return media.URL
	}

	url, err := rt.media.PresignDownload(ctx, media.ObjectKey, MediaURLDuration)
	if err != nil {
		rt.logger.Error().Err(err).
			Str("media_id", ev.MediaID).
			Msg("Failed to presign media download URL")
		return ""
	}

	return url
}

// reply serializes payload and queues it directly on the sender's own
// connection.
func (rt *Router) reply(sender Handle, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		rt.logger.Error().Err(err).Msg("Failed to marshal direct reply")
		return
	}

	if err := sender.Enqueue(data); err != nil {
		rt.logger.Warn().Err(err).Msg("Failed to queue direct reply")
	}
}

// replyError sends a structured error frame directly to the sender.
func (rt *Router) replyError(sender Handle, code, message string, details map[string]any) {
	rt.reply(sender, NewErrorPayload(code, message, details))
}
