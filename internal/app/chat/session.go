/*
Package chat contains the real-time delivery core.

This file defines the Session, the actor owning one accepted WebSocket
connection. A session drives the handshake state machine (authenticate,
authorize, register), runs the read and write pumps, and guarantees
deregistration from the Registry on every exit path. Rejected connections
still complete the transport handshake so the client can read a structured
error frame before the close; many client stacks cannot surface an error
payload when the upgrade itself is refused.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"shambachat/internal/app/user"
	"shambachat/internal/pkg/auth/jwt"
	"shambachat/internal/pkg/errs"
	"shambachat/internal/pkg/logx"
)

const (
	// timeout for writes to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong before considering the peer gone.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed inbound frame size in bytes.
	maxMessageSize = 8192

	// outbound queue depth per connection.
	sendChannelBuffer = 256
)

// Application WebSocket close codes (4000-4999 range). Clients branch on
// these: authentication failure prompts a re-login, forbidden shows a
// "not your conversation" notice.
const (
	// CloseCodeSessionReplaced signals that a newer connection for the same
	// principal took over this thread slot.
	CloseCodeSessionReplaced = 4001

	// CloseCodeAuthFailed signals token verification failure.
	CloseCodeAuthFailed = 4401

	// CloseCodeForbidden signals an authorization (membership) failure.
	CloseCodeForbidden = 4403
)

// TokenVerifier validates the handshake credential.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (user.Principal, *jwt.AuthError)
}

// SessionDeps bundles the collaborators a session needs. The registry and
// dispatcher are process-wide and injected rather than reached through
// globals.
type SessionDeps struct {
	Verifier   TokenVerifier
	Authorizer *Authorizer
	Registry   *Registry
	Router     *Router
}

// Session owns one live WebSocket connection. The outbound channel is
// exclusively owned by this session; other actors reach it only through the
// Handle interface via the Registry.
type Session struct {
	conn      *websocket.Conn
	deps      SessionDeps
	threadID  int64
	principal user.Principal

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	logger    zerolog.Logger
}

// NewSession wraps an already-upgraded connection for threadID.
func NewSession(conn *websocket.Conn, threadID int64, deps SessionDeps) *Session {
	return &Session{
		conn:     conn,
		deps:     deps,
		threadID: threadID,
		send:     make(chan []byte, sendChannelBuffer),
		done:     make(chan struct{}),
		logger: logx.Logger().With().
			Int64("thread_id", threadID).
			Logger(),
	}
}

// Run drives the connection through its lifecycle: authenticate, authorize,
// register, then pump frames until disconnect. It blocks until the
// connection is closed and always leaves the Registry clean.
func (s *Session) Run(ctx context.Context, rawToken string) {
	principal, authErr := s.deps.Verifier.Verify(ctx, rawToken)
	if authErr != nil {
		s.logger.Warn().
			Str("reason", string(authErr.Reason)).
			Msg("Connection rejected: authentication failed")

		s.reject(CloseCodeAuthFailed, NewErrorPayload(
			errs.CodeAuthFailed,
			"Authentication failed: "+authErr.ClientMessage(),
			map[string]any{
				"reason":    string(authErr.Reason),
				"thread_id": s.threadID,
			},
		))
		return
	}

	if !s.deps.Authorizer.Authorize(ctx, principal, s.threadID) {
		s.logger.Warn().
			Int64("user_id", principal.ID).
			Msg("Connection rejected: not a participant")

		s.reject(CloseCodeForbidden, NewErrorPayload(
			errs.CodeForbidden,
			"You don't have permission to access this conversation",
			map[string]any{
				"thread_id": s.threadID,
				"user_id":   principal.ID,
			},
		))
		return
	}

	s.principal = principal
	s.logger = s.logger.With().Int64("user_id", principal.ID).Logger()

	// A stale connection for the same principal loses its slot. Kicking
	// happens outside the registry lock.
	if prev := s.deps.Registry.Register(s.threadID, principal.ID, s); prev != nil {
		s.logger.Warn().Msg("Principal already connected. Replacing old connection.")
		prev.Kick(CloseCodeSessionReplaced, "Session replaced by new connection")
	}

	s.logger.Info().Msg("Connection open")

	go s.writePump()
	s.readPump(ctx)
}

// readPump reads frames until the connection dies and hands each one to the
// router. Its deferred cleanup is the single guaranteed deregistration
// path, safe to run no matter how far the handshake progressed.
func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.deps.Registry.Deregister(s.threadID, s.principal.ID, s)
		s.close()
		s.logger.Info().Msg("Connection closed")
	}()

	s.conn.SetReadLimit(maxMessageSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Read error, closing session")
			}
			return
		}

		s.deps.Router.Route(ctx, s.principal, s.threadID, frame, s)
	}
}

// writePump serializes all outbound traffic for this connection: queued
// payloads in arrival order, plus the ping heartbeat.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Error().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Error().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// Enqueue implements Handle. It queues data for delivery without blocking;
// a closed session or a full queue is an error the dispatcher logs and
// skips.
func (s *Session) Enqueue(data []byte) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.send <- data:
		return nil
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Send queue full, dropping payload")
		return errors.New("send queue full")
	}
}

// Kick implements Handle. It is called from the replacing session's
// goroutine; WriteControl is safe concurrently with the write pump.
func (s *Session) Kick(code int, reason string) {
	s.logger.Warn().
		Int("close_code", code).
		Str("reason", reason).
		Msg("Kicking connection")

	closeMessage := websocket.FormatCloseMessage(code, reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send close frame on kick")
	}

	s.close()
}

// reject completes the rejection path for a connection that never made it
// past the handshake: send the structured error frame, then close with the
// distinguishing application code.
func (s *Session) reject(code int, payload ErrorPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal rejection frame")
	} else {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to write rejection frame")
		}
	}

	closeMessage := websocket.FormatCloseMessage(code, payload.Message)
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write close frame")
	}

	s.conn.Close()
}

// close tears the connection down exactly once: the done signal stops the
// write pump and invalidates Enqueue, and closing the transport unblocks
// the read pump.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
