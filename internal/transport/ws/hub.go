package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// MsgError is sent to a single connection when an action fails for reasons
// other than a silent rejection.
const MsgError = "error"

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection represents a WebSocket connection
type Connection struct {
	ID       string
	UserID   string
	Username string
	Send     chan []byte

	roomID string // guarded by Hub.mu
}

// BroadcastMessage is a message queued for delivery. ToConn targets one
// connection; otherwise every subscriber of RoomID except ExceptConn.
type BroadcastMessage struct {
	RoomID     string
	ToConn     string
	ExceptConn string
	Data       []byte
}

// Hub tracks live connections and the room topic each one is subscribed to.
// Registration changes are applied synchronously; deliveries go through a
// single queue so messages for a room leave in the order they were published.
type Hub struct {
	conns map[string]*Connection            // connID -> conn
	rooms map[string]map[string]*Connection // roomID -> connID -> conn

	mu sync.RWMutex

	broadcast chan *BroadcastMessage
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub() *Hub {
	h := &Hub{
		conns:     make(map[string]*Connection),
		rooms:     make(map[string]map[string]*Connection),
		broadcast: make(chan *BroadcastMessage, 1024),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.ToConn != "" {
		if conn, ok := h.conns[msg.ToConn]; ok {
			h.trySend(conn, msg.Data)
		}
		return
	}
	for id, conn := range h.rooms[msg.RoomID] {
		if id == msg.ExceptConn {
			continue
		}
		h.trySend(conn, msg.Data)
	}
}

func (h *Hub) trySend(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Str("username", conn.Username).
			Msg("send buffer full, dropping message")
	}
}

// Close stops the delivery loop.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn.ID] = conn
	log.Debug().Str("connection_id", conn.ID).Str("username", conn.Username).Msg("connection registered")
}

// Unregister removes a connection, closes its send channel and returns the
// room it was subscribed to, if any.
func (h *Hub) Unregister(conn *Connection) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, ok := h.conns[conn.ID]
	if !ok || existing != conn {
		return ""
	}
	delete(h.conns, conn.ID)
	roomID := conn.roomID
	h.leaveLocked(conn)
	close(conn.Send)

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room_id", roomID).
		Msg("connection unregistered")
	return roomID
}

// Subscribe moves a connection onto roomID's topic.
func (h *Hub) Subscribe(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	if conn.roomID == roomID {
		return
	}
	h.leaveLocked(conn)

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Connection)
	}
	h.rooms[roomID][connID] = conn
	conn.roomID = roomID
}

// RoomOf returns the room a connection is subscribed to.
func (h *Hub) RoomOf(connID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if conn, ok := h.conns[connID]; ok {
		return conn.roomID
	}
	return ""
}

func (h *Hub) leaveLocked(conn *Connection) {
	if conn.roomID == "" {
		return
	}
	if members, ok := h.rooms[conn.roomID]; ok {
		delete(members, conn.ID)
		if len(members) == 0 {
			delete(h.rooms, conn.roomID)
		}
	}
	conn.roomID = ""
}

// BroadcastToRoom sends to every subscriber of roomID.
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{RoomID: roomID}, msgType, payload)
}

// BroadcastToRoomExcept sends to every subscriber of roomID but exceptConnID.
func (h *Hub) BroadcastToRoomExcept(roomID, exceptConnID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{RoomID: roomID, ExceptConn: exceptConnID}, msgType, payload)
}

// SendToConnection sends to a single connection.
func (h *Hub) SendToConnection(connID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{ToConn: connID}, msgType, payload)
}

func (h *Hub) enqueue(msg *BroadcastMessage, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to encode message")
		return
	}
	msg.Data = data

	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Payload: raw})
}
