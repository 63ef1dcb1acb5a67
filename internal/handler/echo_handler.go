package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"shambachat/internal/pkg/logx"
)

// testBanner greets clients of the diagnostic endpoint on connect.
const testBanner = "Connected to test WebSocket!"

// HandleTestWebSocket creates the diagnostic echo endpoint. It skips
// authentication entirely so operators can verify WebSocket reachability
// through proxies and load balancers without a valid token.
func HandleTestWebSocket(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade test connection")
			return
		}
		defer conn.Close()

		logx.Info("Test WebSocket connected", "remote", r.RemoteAddr)

		if err := conn.WriteMessage(websocket.TextMessage, []byte(testBanner)); err != nil {
			return
		}

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, append([]byte("Echo: "), frame...)); err != nil {
				return
			}
		}
	}
}
