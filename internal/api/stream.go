package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/learnpath/internal/models"
)

const (
	streamBuffer = 16
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream message types
const (
	StreamSnapshot = "snapshot"
	StreamState    = "state"
	StreamProgress = "progress"
	StreamError    = "error"
	StreamClosed   = "closed"
)

// StreamMessage is exchanged over a session's progress stream.
// The server sends snapshot, state, error and closed messages; clients may
// send progress messages carrying a technique id and patch.
type StreamMessage struct {
	Type        string                `json:"type"`
	Session     *models.Session       `json:"session,omitempty"`
	TechniqueID string                `json:"techniqueId,omitempty"`
	Patch       *models.ProgressPatch `json:"patch,omitempty"`
	Data        string                `json:"data,omitempty"`
}

// streamConn serializes writes to a websocket connection
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *streamConn) send(msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send stream message", "error", err)
		return err
	}
	return nil
}

func (c *streamConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleSessionStream pushes a session snapshot after every state change and
// applies progress updates sent by the client
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	initial, err := s.sessions.Get(id)
	if err != nil {
		respondServiceError(w, err, "open session stream")
		return
	}
	updates, unsubscribe, err := s.sessions.Subscribe(id, streamBuffer)
	if err != nil {
		respondServiceError(w, err, "open session stream")
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	stream := &streamConn{conn: conn}

	slog.Info("session stream connected", "session_id", id)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		conn.Close()
		wg.Wait()
		slog.Info("session stream disconnected", "session_id", id)
	}()

	if err := stream.send(StreamMessage{Type: StreamSnapshot, Session: initial}); err != nil {
		return
	}

	// Read from WebSocket -> apply progress updates
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.readStream(stream, id)
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}

		case st, ok := <-updates:
			if !ok {
				stream.send(StreamMessage{Type: StreamClosed, Data: "session closed"})
				return
			}
			snapshot, err := s.sessions.Snapshot(id, st)
			if err != nil {
				stream.send(StreamMessage{Type: StreamClosed, Data: "session closed"})
				return
			}
			if err := stream.send(StreamMessage{Type: StreamState, Session: snapshot}); err != nil {
				return
			}
		}
	}
}

func (s *Server) readStream(stream *streamConn, id string) {
	for {
		_, message, err := stream.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg StreamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			stream.send(StreamMessage{Type: StreamError, Data: "invalid message format"})
			continue
		}

		switch msg.Type {
		case StreamProgress:
			if msg.Patch == nil {
				stream.send(StreamMessage{Type: StreamError, Data: "progress message requires a patch"})
				continue
			}
			if _, err := s.sessions.UpdateProgress(id, msg.TechniqueID, *msg.Patch); err != nil {
				stream.send(StreamMessage{Type: StreamError, Data: err.Error()})
			}
		default:
			stream.send(StreamMessage{Type: StreamError, Data: "unsupported message type: " + msg.Type})
		}
	}
}
