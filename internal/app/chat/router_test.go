package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"shambachat/internal/app/store"
	"shambachat/internal/app/user"
)

type fakeMessageStore struct {
	created   []store.CreateMessageParams
	createErr error
	media     map[string]*store.Media
	mediaErr  error
}

func (s *fakeMessageStore) CreateMessage(ctx context.Context, p store.CreateMessageParams) (*store.Message, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, p)
	return &store.Message{
		ID:        "msg-1",
		ThreadID:  p.ThreadID,
		SenderID:  p.SenderID,
		Text:      p.Text,
		MediaID:   p.MediaID,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (s *fakeMessageStore) FindMediaByID(ctx context.Context, id string) (*store.Media, error) {
	if s.mediaErr != nil {
		return nil, s.mediaErr
	}
	return s.media[id], nil
}

type fakePresigner struct {
	urls map[string]string
	err  error
}

func (p *fakePresigner) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.urls[key], nil
}

// routerFixture wires a router over a registry with two registered peers.
func routerFixture(t *testing.T) (*Router, *fakeMessageStore, *Registry, *recordingHandle, *recordingHandle) {
	t.Helper()

	st := &fakeMessageStore{media: map[string]*store.Media{}}
	reg := NewRegistry()
	rt := NewRouter(st, &fakePresigner{urls: map[string]string{}}, NewDispatcher(reg))

	a := &recordingHandle{}
	b := &recordingHandle{}
	reg.Register(7, 1, a)
	reg.Register(7, 2, b)

	return rt, st, reg, a, b
}

func decodeFrame(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("undecodable outbound frame: %v", err)
	}
	return m
}

var (
	alice = user.Principal{ID: 1, Phone: "+255700000001", IsFarmer: true}
)

func TestRouteMessageNewNoSelfEcho(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)

	rt.Route(context.Background(), alice, 7, []byte(`{"type":"message_new","text":"hi"}`), a)

	if len(st.created) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(st.created))
	}
	if st.created[0].Text != "hi" || st.created[0].ThreadID != 7 || st.created[0].SenderID != 1 {
		t.Errorf("unexpected persisted message: %+v", st.created[0])
	}

	if got := a.frameCount(); got != 0 {
		t.Errorf("sender received %d frames, chat content must not echo back", got)
	}
	if got := b.frameCount(); got != 1 {
		t.Fatalf("peer received %d frames, want 1", got)
	}

	frame := decodeFrame(t, b.frames[0])
	if frame["type"] != "message_new" || frame["text"] != "hi" {
		t.Errorf("unexpected peer frame: %v", frame)
	}
	if frame["sender"] != float64(1) {
		t.Errorf("sender field: got %v, want 1", frame["sender"])
	}
	if _, err := time.Parse(time.RFC3339, frame["created_at"].(string)); err != nil {
		t.Errorf("created_at is not RFC3339: %v", err)
	}
}

func TestRouteMessageNewZeroPeers(t *testing.T) {
	st := &fakeMessageStore{}
	reg := NewRegistry()
	rt := NewRouter(st, &fakePresigner{}, NewDispatcher(reg))

	a := &recordingHandle{}
	reg.Register(7, 1, a)

	// Nobody else connected: the message persists and dispatch is a no-op.
	rt.Route(context.Background(), alice, 7, []byte(`{"type":"message_new","text":"hello"}`), a)

	if len(st.created) != 1 {
		t.Fatalf("expected message persisted despite zero peers, got %d", len(st.created))
	}
	if got := a.frameCount(); got != 0 {
		t.Errorf("sender received %d frames, want 0", got)
	}
}

func TestRouteMessageNewPersistFailure(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)
	st.createErr = errors.New("db down")

	rt.Route(context.Background(), alice, 7, []byte(`{"type":"message_new","text":"hi"}`), a)

	if got := b.frameCount(); got != 0 {
		t.Errorf("peer received %d frames after persistence failure, want 0", got)
	}
	if got := a.frameCount(); got != 1 {
		t.Fatalf("sender received %d frames, want 1 error frame", got)
	}

	frame := decodeFrame(t, a.frames[0])
	if frame["type"] != "error" || frame["code"] != "persist_failed" {
		t.Errorf("unexpected error frame: %v", frame)
	}
}

func TestRouteMediaReferenceAckVsFanout(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)
	st.media["m-9"] = &store.Media{ID: "m-9", ObjectKey: "7/m-9.jpg", URL: "https://cdn.example/m-9.jpg"}

	rt.Route(context.Background(), alice, 7,
		[]byte(`{"type":"media_reference","media_id":"m-9","caption":"my maize"}`), a)

	// Exactly one direct ack to the sender.
	if got := a.frameCount(); got != 1 {
		t.Fatalf("sender received %d frames, want exactly 1 ack", got)
	}
	ack := decodeFrame(t, a.frames[0])
	if ack["media_id"] != "m-9" || ack["status"] != "received" || ack["success"] != true {
		t.Errorf("unexpected ack frame: %v", ack)
	}
	if ack["message_id"] != "msg-1" {
		t.Errorf("ack message_id: got %v, want msg-1", ack["message_id"])
	}

	// A separate fan-out payload to the peer, never echoing to the sender.
	if got := b.frameCount(); got != 1 {
		t.Fatalf("peer received %d frames, want 1", got)
	}
	frame := decodeFrame(t, b.frames[0])
	if frame["type"] != "message_new" || frame["has_media"] != true {
		t.Errorf("unexpected fan-out frame: %v", frame)
	}
	if frame["media_url"] != "https://cdn.example/m-9.jpg" {
		t.Errorf("media_url: got %v", frame["media_url"])
	}
	if frame["text"] != "my maize" {
		t.Errorf("caption: got %v", frame["text"])
	}

	if len(st.created) != 1 || st.created[0].MediaID != "m-9" {
		t.Errorf("expected persisted media message, got %+v", st.created)
	}
}

func TestRouteMediaReferenceAckReachesLoneSender(t *testing.T) {
	st := &fakeMessageStore{media: map[string]*store.Media{
		"m-9": {ID: "m-9", URL: "https://cdn.example/m-9.jpg"},
	}}
	reg := NewRegistry()
	rt := NewRouter(st, &fakePresigner{}, NewDispatcher(reg))

	a := &recordingHandle{}
	reg.Register(7, 1, a)

	rt.Route(context.Background(), alice, 7,
		[]byte(`{"type":"media_reference","media_id":"m-9"}`), a)

	// The uploader still gets the ack when nobody else is connected.
	if got := a.frameCount(); got != 1 {
		t.Fatalf("lone sender received %d frames, want 1 ack", got)
	}
}

func TestRouteMediaReferencePresignFallback(t *testing.T) {
	st := &fakeMessageStore{media: map[string]*store.Media{
		"m-9": {ID: "m-9", ObjectKey: "7/m-9.jpg"},
	}}
	reg := NewRegistry()
	presigner := &fakePresigner{urls: map[string]string{
		"7/m-9.jpg": "https://bucket.example/7/m-9.jpg?signed",
	}}
	rt := NewRouter(st, presigner, NewDispatcher(reg))

	a := &recordingHandle{}
	b := &recordingHandle{}
	reg.Register(7, 1, a)
	reg.Register(7, 2, b)

	rt.Route(context.Background(), alice, 7,
		[]byte(`{"type":"media_reference","media_id":"m-9"}`), a)

	frame := decodeFrame(t, b.frames[0])
	if frame["media_url"] != "https://bucket.example/7/m-9.jpg?signed" {
		t.Errorf("expected presigned media_url, got %v", frame["media_url"])
	}
}

func TestRouteMediaReferenceInlineURLWins(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)
	st.media["m-9"] = &store.Media{ID: "m-9", URL: "https://cdn.example/stored.jpg"}

	rt.Route(context.Background(), alice, 7,
		[]byte(`{"type":"media_reference","media_id":"m-9","media_url":"https://inline.example/x.jpg"}`), a)

	frame := decodeFrame(t, b.frames[0])
	if frame["media_url"] != "https://inline.example/x.jpg" {
		t.Errorf("inline media_url must win, got %v", frame["media_url"])
	}
}

func TestRouteMediaReferenceWithoutID(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)

	rt.Route(context.Background(), alice, 7, []byte(`{"type":"media_reference"}`), a)

	if len(st.created) != 0 {
		t.Error("no message should persist without a media id")
	}
	if got := b.frameCount(); got != 0 {
		t.Errorf("peer received %d frames, want 0", got)
	}
	if got := a.frameCount(); got != 1 {
		t.Fatalf("sender received %d frames, want 1 error frame", got)
	}
	frame := decodeFrame(t, a.frames[0])
	if frame["code"] != "invalid_media" {
		t.Errorf("unexpected error code: %v", frame["code"])
	}
}

func TestRouteLegacyMediaDataTag(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)
	st.media["m-4"] = &store.Media{ID: "m-4", URL: "https://cdn.example/m-4.jpg"}

	// Older clients send "media_data" with the id nested under "data".
	rt.Route(context.Background(), alice, 7,
		[]byte(`{"type":"media_data","data":{"media_id":"m-4"},"text":"cap"}`), a)

	if len(st.created) != 1 || st.created[0].MediaID != "m-4" || st.created[0].Text != "cap" {
		t.Errorf("legacy media_data frame not handled: %+v", st.created)
	}
	if a.frameCount() != 1 || b.frameCount() != 1 {
		t.Errorf("expected 1 ack and 1 fan-out, got %d/%d", a.frameCount(), b.frameCount())
	}
}

func TestRouteTyping(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)

	rt.Route(context.Background(), alice, 7, []byte(`{"type":"typing_start"}`), a)
	rt.Route(context.Background(), alice, 7, []byte(`{"type":"typing_stop"}`), a)

	if len(st.created) != 0 {
		t.Error("typing indicators must never persist")
	}
	if got := a.frameCount(); got != 0 {
		t.Errorf("sender received %d typing frames, want 0", got)
	}
	if got := b.frameCount(); got != 2 {
		t.Fatalf("peer received %d frames, want 2", got)
	}

	start := decodeFrame(t, b.frames[0])
	if start["type"] != "typing_start" || start["user"] != float64(1) {
		t.Errorf("unexpected typing frame: %v", start)
	}
}

func TestRouteMalformedFrameTolerance(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)

	rt.Route(context.Background(), alice, 7, []byte(`{not json`), a)

	if a.frameCount() != 0 || b.frameCount() != 0 {
		t.Error("malformed frame must produce no reply and no fan-out")
	}

	// The session stays usable for subsequent valid frames.
	rt.Route(context.Background(), alice, 7, []byte(`{"type":"message_new","text":"still here"}`), a)
	if len(st.created) != 1 || b.frameCount() != 1 {
		t.Error("valid frame after a malformed one was not handled")
	}
}

func TestRouteUnknownTypeIgnored(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)

	rt.Route(context.Background(), alice, 7, []byte(`{"type":"reaction_add","emoji":"x"}`), a)

	if a.frameCount() != 0 || b.frameCount() != 0 || len(st.created) != 0 {
		t.Error("unknown event kinds must be ignored without replies")
	}
}

func TestRouteMediaAckLoggedOnly(t *testing.T) {
	rt, st, _, a, b := routerFixture(t)

	rt.Route(context.Background(), alice, 7,
		[]byte(`{"type":"media_ack","media_id":"m-9","status":"received"}`), a)

	if a.frameCount() != 0 || b.frameCount() != 0 || len(st.created) != 0 {
		t.Error("client acks must not be persisted or fanned out")
	}
}

func TestDispatchToleratesFailedPeer(t *testing.T) {
	rt, _, reg, a, b := routerFixture(t)

	c := &recordingHandle{failed: true}
	reg.Register(7, 3, c)

	rt.Route(context.Background(), alice, 7, []byte(`{"type":"message_new","text":"hi"}`), a)

	// The broken peer must not abort delivery to the healthy one.
	if got := b.frameCount(); got != 1 {
		t.Errorf("healthy peer received %d frames, want 1", got)
	}
}
