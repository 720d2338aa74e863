package chat

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Query          string `json:"query"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

// handleWebSocket serves chat queries over a WebSocket connection. Each
// incoming message runs one streaming workflow; every workflow event is
// written back as a JSON frame.
func handleWebSocket(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("chat: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("chat: websocket read: %v", err)
				}
				return
			}
			if req.Query == "" {
				writeWSError(conn, "query is required")
				continue
			}

			events, conversationID, err := svc.Stream(r.Context(), QueryRequest{
				Query:          req.Query,
				UserID:         req.UserID,
				ConversationID: req.ConversationID,
			})
			if err != nil {
				writeWSError(conn, err.Error())
				continue
			}

			for ev := range events {
				frame := map[string]any{
					"type":            ev.Type,
					"conversation_id": conversationID,
				}
				if ev.Stage != "" {
					frame["stage"] = ev.Stage
					frame["status"] = ev.Status
					frame["message"] = ev.Message
				}
				if ev.Answer != nil {
					frame["answer"] = ev.Answer
				}
				if ev.Type == "error" {
					frame["message"] = ev.Message
				}
				if err := conn.WriteJSON(frame); err != nil {
					log.Printf("chat: websocket write: %v", err)
					return
				}
			}
		}
	}
}

func writeWSError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(map[string]string{"type": "error", "message": message}); err != nil {
		log.Printf("chat: websocket write error: %v", err)
	}
}
