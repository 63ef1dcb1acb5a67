/*
Package handler provides the HTTP handler for WebSocket connection
upgrading and session startup.

The chat endpoint upgrades first and authenticates after: the session sends
a structured error frame and an application close code on rejection, which
browser clients can surface, unlike a refused upgrade.
*/
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"shambachat/internal/app/chat"
	"shambachat/internal/pkg/auth/jwt"
	"shambachat/internal/pkg/errs"
	"shambachat/internal/pkg/limiter"
	"shambachat/internal/pkg/logx"
	"shambachat/internal/pkg/resp"
)

// HandleChatWebSocket creates an HTTP HandlerFunc that upgrades a chat
// connection for one thread and runs its session to completion.
func HandleChatWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.New(errs.CodeRateLimited))
			return
		}

		threadID, err := strconv.ParseInt(chi.URLParam(r, "threadID"), 10, 64)
		if err != nil || threadID <= 0 {
			logx.Warn("WebSocket request rejected: Invalid thread id", "raw", chi.URLParam(r, "threadID"))
			resp.RespondError(w, r, errs.New(errs.CodeInvalidParams))
			return
		}

		token, source := jwt.ExtractWebSocketToken(r)

		// Echo the offered subprotocol so browser clients that smuggle the
		// token through Sec-WebSocket-Protocol complete their handshake.
		var responseHeader http.Header
		if strings.HasPrefix(source, "subprotocol") {
			responseHeader = http.Header{
				"Sec-WebSocket-Protocol": {r.Header.Get("Sec-WebSocket-Protocol")},
			}
		}

		conn, err := upgrader.Upgrade(w, r, responseHeader)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection upgraded",
			"thread_id", threadID,
			"token_source", source,
		)

		session := chat.NewSession(conn, threadID, deps.Sessions)
		session.Run(r.Context(), token)
	}
}
