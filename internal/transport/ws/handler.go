package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"codeduel/internal/service"
	"codeduel/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Inbound message types
const (
	MsgJoinRoom    = "join-room"
	MsgPlayerReady = "player-ready"
	MsgStartGame   = "start-game"
	MsgCodeUpdate  = "code-update"
	MsgRunCode     = "run-code"
	MsgSubmitCode  = "submit-code"
)

// Sessions is the subset of the session coordinator the socket drives.
type Sessions interface {
	Join(ctx context.Context, a session.Actor) error
	Ready(ctx context.Context, a session.Actor) error
	Start(ctx context.Context, roomID string) error
	UpdateCode(ctx context.Context, a session.Actor, code string) error
	Run(a session.Actor, code string)
	Submit(ctx context.Context, a session.Actor, code string) error
	Disconnect(ctx context.Context, a session.Actor) error
}

type actionPayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Handler handles WebSocket connections
type Handler struct {
	hub           *Hub
	sessions      Sessions
	authSvc       *service.AuthService
	upgrader      websocket.Upgrader
	actionTimeout time.Duration
}

// NewHandler creates a new WebSocket handler. An origin of "*" accepts any.
func NewHandler(hub *Hub, sessions Sessions, authSvc *service.AuthService, allowedOrigins []string, actionTimeout time.Duration) *Handler {
	if actionTimeout <= 0 {
		actionTimeout = 5 * time.Second
	}
	return &Handler{
		hub:      hub,
		sessions: sessions,
		authSvc:  authSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		actionTimeout: actionTimeout,
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS handles GET /v1/ws?token=
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ID:       uuid.NewString(),
		UserID:   claims.UserID,
		Username: claims.Username,
		Send:     make(chan []byte, sendBuffer),
	}
	h.hub.Register(conn)

	log.Info().
		Str("connection_id", conn.ID).
		Str("username", conn.Username).
		Msg("websocket connected")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		roomID := h.hub.Unregister(conn)
		wsConn.Close()
		h.disconnect(conn, roomID)
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", conn.ID).Msg("websocket read error")
			}
			return
		}
		h.dispatch(conn, data)
	}
}

func (h *Handler) disconnect(conn *Connection, roomID string) {
	logger := log.With().
		Str("connection_id", conn.ID).
		Str("username", conn.Username).
		Str("room_id", roomID).
		Logger()
	logger.Info().Msg("websocket disconnected")

	if roomID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.actionTimeout)
	defer cancel()

	err := h.sessions.Disconnect(ctx, session.Actor{
		RoomID:       roomID,
		Username:     conn.Username,
		ConnectionID: conn.ID,
	})
	if err != nil {
		if session.IsNoop(err) {
			logger.Debug().Err(err).Msg("disconnect ignored")
			return
		}
		logger.Error().Err(err).Msg("disconnect failed")
	}
}

// dispatch routes one inbound envelope to the coordinator. The acting
// username always comes from the token.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed message")
		return
	}

	var p actionPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Debug().Err(err).Str("type", msg.Type).Msg("malformed payload")
			return
		}
	}
	if p.RoomID == "" {
		p.RoomID = h.hub.RoomOf(conn.ID)
	}

	logger := log.With().
		Str("type", msg.Type).
		Str("room_id", p.RoomID).
		Str("username", conn.Username).
		Str("connection_id", conn.ID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic in dispatch")
		}
	}()

	actor := session.Actor{
		RoomID:       p.RoomID,
		Username:     conn.Username,
		ConnectionID: conn.ID,
	}

	// Running code needs no room.
	if msg.Type == MsgRunCode {
		h.sessions.Run(actor, p.Code)
		return
	}
	if p.RoomID == "" {
		logger.Debug().Msg("message without room ignored")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.actionTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MsgJoinRoom:
		err = h.sessions.Join(ctx, actor)
	case MsgPlayerReady:
		err = h.sessions.Ready(ctx, actor)
	case MsgStartGame:
		err = h.sessions.Start(ctx, p.RoomID)
	case MsgCodeUpdate:
		err = h.sessions.UpdateCode(ctx, actor, p.Code)
	case MsgSubmitCode:
		err = h.sessions.Submit(ctx, actor, p.Code)
	default:
		logger.Debug().Msg("unknown message type")
		return
	}

	if err == nil {
		return
	}
	if session.IsNoop(err) {
		logger.Debug().Err(err).Msg("action ignored")
		return
	}
	logger.Error().Err(err).Msg("action failed")
	h.hub.SendToConnection(conn.ID, MsgError, errorPayload{Message: "Something went wrong, please try again."})
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
