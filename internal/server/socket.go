package server

import (
	"context"
	"net/http"
	"time"

	"export-assistant/internal/chat"

	"github.com/gorilla/websocket"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
)

// socketEvent is sent to the client. The first event on a new connection
// is "session" with the transcript so far; each submission answers with
// "reply".
type socketEvent struct {
	Type    string       `json:"type"`
	Session *sessionView `json:"session,omitempty"`
	Reply   *chat.Reply  `json:"reply,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
}

// handleSocket carries one chat session over a websocket. Submissions are
// read one at a time, so a client cannot overlap its own requests.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed", map[string]interface{}{"sessionId": sess.ID})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := s.logger.With(map[string]interface{}{"sessionId": sess.ID})

	conn.SetReadLimit(maxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(socketPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	writes := make(chan socketEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, conn, writes)
	}()

	view := viewOf(sess)
	select {
	case writes <- socketEvent{Type: "session", Session: &view}:
	case <-done:
		return
	}

	for {
		var req messageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket closed unexpectedly", nil)
			}
			break
		}
		reply := s.deps.Chat.Handle(ctx, sess, req.Text)
		select {
		case writes <- socketEvent{Type: "reply", Reply: &reply}:
		case <-done:
			cancel()
			return
		}
	}
	cancel()
	<-done
}

// writeLoop owns all writes to conn, including keepalive pings.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan socketEvent) {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(socketWriteWait))
			return
		}
	}
}
