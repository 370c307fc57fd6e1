package ws

import (
	"encoding/json"

	"github.com/sujalbistaa/shadowspace/internal/log"
	"github.com/sujalbistaa/shadowspace/internal/stream"
)

// Message is the JSON frame sent to connected clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of active websocket clients and broadcasts frames
// to them.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register/unregister/broadcast events. Call in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than blocking the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Relay subscribes to the feed change stream and forwards every event to
// connected websocket clients as a JSON frame. It returns when the
// subscription is cancelled.
func (h *Hub) Relay(sub *stream.Subscription) {
	logg := log.WithComponent("ws")
	for event := range sub.Events() {
		frame, err := json.Marshal(Message{Type: string(event.Type), Data: event.Post})
		if err != nil {
			logg.Error().Err(err).Msg("failed to marshal feed event")
			continue
		}
		h.Broadcast <- frame
	}
}
