package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// chatReadTimeout bounds how long a chat connection may sit idle
// between messages before the server drops it.
const chatReadTimeout = 60 * time.Second

// handleChat runs the query pipeline over a WebSocket. Each text frame
// carries the same JSON payload as POST /query and receives the same
// response. Malformed frames get an error reply and the connection
// stays open; read failures end the session.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		s.log.Warn("server: websocket upgrade failed",
			"id", requestID(r.Context()), "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		conn.SetReadDeadline(time.Now().Add(chatReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("server: chat connection lost",
					"id", requestID(ctx), "error", err)
			}
			return
		}

		var req queryRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := conn.WriteJSON(map[string]string{"error": "invalid message"}); err != nil {
				return
			}
			continue
		}
		if req.UserID == "" || req.Message == "" {
			if err := conn.WriteJSON(map[string]string{"error": "user_id and message are required"}); err != nil {
				return
			}
			continue
		}

		resp, err := s.runQuery(ctx, req)
		if err != nil {
			s.log.Error("server: chat query failed",
				"id", requestID(ctx), "user", req.UserID, "error", err)
			if err := conn.WriteJSON(map[string]string{"error": "internal error"}); err != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
