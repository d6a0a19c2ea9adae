package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/homeward/internal/engine"
)

// Message types on the renderer stream.
const (
	MessageTypeMove    = "move"    // client → server: commit a step
	MessageTypeHover   = "hover"   // client → server: cursor moved
	MessageTypeUpdate  = "update"  // server → client: state after a move
	MessageTypePreview = "preview" // server → client: cursor affordance
	MessageTypeError   = "error"
)

const (
	wsWriteWait  = 10 * time.Second
	wsSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The renderer may be served from anywhere during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Envelope is the wire format of every stream message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// updatePayload is sent after every move request.
type updatePayload struct {
	Result engine.MoveResult `json:"result"`
	Player engine.PlayerView `json:"player"`
	Tiles  []engine.TileView `json:"tiles"` // Revealed tiles only
	Status engine.Status     `json:"status"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// handleWebSocket upgrades the request and serves one renderer connection.
// Input messages are handled in arrival order, one at a time.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan Envelope, wsSendBuffer)
	done := make(chan struct{})
	go writePump(conn, send, done)

	slog.Info("renderer connected", "remote", conn.RemoteAddr().String())
	s.readPump(conn, send)

	close(send)
	<-done
	slog.Info("renderer disconnected", "remote", conn.RemoteAddr().String())
}

func (s *Server) readPump(conn *websocket.Conn, send chan<- Envelope) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}

		reply := s.handleMessage(data)
		select {
		case send <- reply:
		default:
			slog.Warn("renderer too slow, dropping connection")
			return
		}
	}
}

func writePump(conn *websocket.Conn, send <-chan Envelope, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()

	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// handleMessage turns one client message into its reply.
func (s *Server) handleMessage(data []byte) Envelope {
	var in Envelope
	if err := json.Unmarshal(data, &in); err != nil {
		return errorEnvelope("invalid message")
	}
	if in.Type != MessageTypeMove && in.Type != MessageTypeHover {
		return errorEnvelope("unknown message type " + in.Type)
	}

	var req pointRequest
	if err := json.Unmarshal(in.Payload, &req); err != nil {
		return errorEnvelope("invalid payload")
	}
	x, y, err := req.world()
	if err != nil {
		return errorEnvelope(err.Error())
	}

	switch in.Type {
	case MessageTypeMove:
		var p updatePayload
		s.withSession(func(sess *engine.Session) {
			p = updatePayload{
				Result: sess.Move(x, y),
				Player: sess.PlayerView(),
				Tiles:  sess.Tiles(true),
				Status: sess.Status(),
			}
		})
		return envelope(MessageTypeUpdate, p)
	default:
		return envelope(MessageTypePreview, s.preview(x, y))
	}
}

func envelope(typ string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errorEnvelope("encode failed")
	}
	return Envelope{Type: typ, Payload: raw}
}

func errorEnvelope(msg string) Envelope {
	raw, _ := json.Marshal(errorPayload{Message: msg})
	return Envelope{Type: MessageTypeError, Payload: raw}
}
