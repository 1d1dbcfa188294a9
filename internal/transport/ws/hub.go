package ws

import (
	"encoding/json"
	"log"
	"sync"

	"pairfocus/internal/model"
)

// Message is the push-feed envelope format
type Message struct {
	Type     string              `json:"type"`
	RoomName string              `json:"room_name"`
	Room     *model.RoomSnapshot `json:"room"`
}

// Hub fans room transition snapshots out to WebSocket subscribers. It
// implements coordinator.Notifier.
type Hub struct {
	// room name -> connections
	subscribers map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
}

// Connection represents one WebSocket subscriber
type Connection struct {
	RoomName string
	Send     chan []byte
	Hub      *Hub
}

// NewHub creates a new hub and starts its dispatch loop
func NewHub() *Hub {
	h := &Hub{
		subscribers: make(map[string]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *Message, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.subscribers[conn.RoomName] == nil {
				h.subscribers[conn.RoomName] = make(map[*Connection]bool)
			}
			h.subscribers[conn.RoomName][conn] = true
			h.mu.Unlock()
			log.Printf("Subscriber connected to room %s feed", conn.RoomName)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.subscribers[conn.RoomName]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.subscribers, conn.RoomName)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Subscriber left room %s feed", conn.RoomName)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal feed message: %v", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.subscribers[msg.RoomName] {
				select {
				case conn.Send <- data:
				default:
					// Slow consumer; drop the update rather than block the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a subscriber to the hub
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a subscriber from the hub
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// NotifyRoom pushes a transition snapshot to everyone watching the room
func (h *Hub) NotifyRoom(roomName string, snap *model.RoomSnapshot) {
	h.broadcast <- &Message{
		Type:     "room_update",
		RoomName: roomName,
		Room:     snap,
	}
}
