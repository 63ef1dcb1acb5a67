/*
Package chat contains the real-time delivery core.

This file defines the inbound event union and the outbound payload shapes of
the wire protocol. Inbound frames are decoded once into a closed set of
event kinds so that handling is an exhaustive switch rather than scattered
string comparisons.
*/
package chat

import (
	"encoding/json"
)

// EventKind enumerates every inbound frame kind the router understands.
type EventKind int

const (
	// EventUnknown covers unrecognized type tags; logged and ignored so
	// newer clients do not break older servers.
	EventUnknown EventKind = iota

	// EventMessageNew is a new text message.
	EventMessageNew

	// EventMediaReference references a previously uploaded media object.
	// Clients send it as "media_reference" or the older "media_data" tag.
	EventMediaReference

	// EventTypingStart and EventTypingStop are ephemeral presence signals,
	// delivered to peers and never persisted.
	EventTypingStart
	EventTypingStop

	// EventMediaAck is a client-side delivery acknowledgment; accepted and
	// logged only.
	EventMediaAck
)

// InboundEvent is the decoded form of one inbound frame. It lives only for
// the duration of a single receive-and-dispatch cycle.
type InboundEvent struct {
	Kind EventKind

	// RawType is the original type tag, kept for logging.
	RawType string

	// Text carries the message text or media caption.
	Text string

	// MediaID and MediaURL describe the referenced media object. MediaURL
	// is optional; when absent the router resolves it from the media store.
	MediaID  string
	MediaURL string

	// AckStatus is the status reported by an EventMediaAck frame.
	AckStatus string
}

// inboundFrame matches the superset of fields the mobile clients send.
// Older client builds nest the media id under "data" and use "text" instead
// of "caption" for media captions.
type inboundFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Caption  string `json:"caption"`
	MediaID  string `json:"media_id"`
	MediaURL string `json:"media_url"`
	Status   string `json:"status"`
	Data     struct {
		MediaID string `json:"media_id"`
	} `json:"data"`
}

// DecodeInbound parses one frame payload into an InboundEvent. A JSON-level
// failure is returned to the caller, which drops the frame; an unrecognized
// type tag decodes successfully as EventUnknown.
func DecodeInbound(frame []byte) (InboundEvent, error) {
	var w inboundFrame
	if err := json.Unmarshal(frame, &w); err != nil {
		return InboundEvent{}, err
	}

	ev := InboundEvent{RawType: w.Type}

	switch w.Type {
	case "message_new":
		ev.Kind = EventMessageNew
		ev.Text = w.Text

	case "media_reference", "media_data":
		ev.Kind = EventMediaReference
		ev.MediaID = w.MediaID
		if ev.MediaID == "" {
			ev.MediaID = w.Data.MediaID
		}
		ev.MediaURL = w.MediaURL
		ev.Text = w.Caption
		if ev.Text == "" {
			ev.Text = w.Text
		}

	case "typing_start":
		ev.Kind = EventTypingStart

	case "typing_stop":
		ev.Kind = EventTypingStop

	case "media_ack":
		ev.Kind = EventMediaAck
		ev.MediaID = w.MediaID
		ev.AckStatus = w.Status

	default:
		ev.Kind = EventUnknown
	}

	return ev, nil
}

// MessagePayload is the rendered outbound form of a persisted message,
// fanned out to the other participants of a thread.
type MessagePayload struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    int64  `json:"sender"`
	CreatedAt string `json:"created_at"`

	// Media fields are present only for media messages.
	MediaID  string `json:"media_id,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
	HasMedia bool   `json:"has_media,omitempty"`
}

// MediaAckPayload is the direct acknowledgment sent back to the uploader of
// a media reference, distinct from the peer fan-out.
type MediaAckPayload struct {
	MediaID   string `json:"media_id"`
	Status    string `json:"status"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
}

// TypingPayload is the ephemeral typing indicator delivered to peers.
type TypingPayload struct {
	Type string `json:"type"`
	User int64  `json:"user"`
}

// ErrorPayload is the structured error frame. Code is a business code from
// the errs package that clients branch on.
type ErrorPayload struct {
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorPayload builds an error frame.
func NewErrorPayload(code, message string, details map[string]any) ErrorPayload {
	return ErrorPayload{
		Type:    "error",
		Code:    code,
		Message: message,
		Details: details,
	}
}
