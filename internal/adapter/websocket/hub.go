package websocket

import (
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Hub fans accepted change records out to every connected live viewer. A
// slow viewer is dropped rather than allowed to stall the broadcast.
type Hub struct {
	// Registered viewers.
	clients map[*Client]bool

	// Outbound messages to all viewers.
	broadcast chan []byte

	// Register requests from new connections.
	register chan registration

	// Unregister requests from closing connections.
	unregister chan *Client

	mu sync.RWMutex
}

// registration joins a new viewer together with the loader for its initial
// payload. The loader runs inside the hub loop so no change record can slip
// between the snapshot read and the viewer joining.
type registration struct {
	client  *Client
	initial func() []byte
}

type Client struct {
	hub *Hub
	// The websocket connection.
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan registration),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case reg := <-h.register:
			if reg.initial != nil {
				if payload := reg.initial(); len(payload) > 0 {
					reg.client.send <- payload
				}
			}
			h.mu.Lock()
			h.clients[reg.client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a payload for delivery to every connected viewer.
func (h *Hub) Broadcast(payload []byte) {
	h.broadcast <- payload
}

// AddClient registers a new viewer connection. The initial loader, usually a
// full snapshot, runs under the hub's registration, so a change accepted
// while the viewer joins is either in the snapshot or broadcast after it.
func (h *Hub) AddClient(conn *websocket.Conn, initial func() []byte) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- registration{client: client, initial: initial}

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Viewers never send data; the read loop only keeps the connection
		// alive and drains control frames.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for {
		message, ok := <-c.send
		if !ok {
			// The hub closed the channel.
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		// Coalesce any queued records into the same frame.
		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
}
