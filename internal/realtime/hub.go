// Package realtime pushes attendance events to connected dashboards over
// websockets.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	ChannelPublic = "attendance.public"
	ChannelAdmin  = "attendance.admin"

	EventAttendanceRecorded = "attendance.recorded"
)

// Broadcaster is the outbound port used by the attendance core.
type Broadcaster interface {
	Publish(event string, channels []string, payload any) error
}

// Envelope is the frame written to subscribers.
type Envelope struct {
	Event     string    `json:"event"`
	Channel   string    `json:"channel"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	Conn     *websocket.Conn
	Send     chan []byte
	Channels map[string]bool
}

func NewClient(conn *websocket.Conn, channels ...string) *Client {
	c := &Client{Conn: conn, Send: make(chan []byte, 32), Channels: map[string]bool{}}
	for _, ch := range channels {
		c.Channels[ch] = true
	}
	return c
}

type outbound struct {
	channel string
	data    []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     zerolog.Logger
	mu         sync.RWMutex
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "realtime").Logger(),
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish encodes payload once per channel and queues it for delivery.
func (h *Hub) Publish(event string, channels []string, payload any) error {
	now := time.Now().UTC()
	for _, ch := range channels {
		data, err := json.Marshal(Envelope{Event: event, Channel: ch, Data: payload, Timestamp: now})
		if err != nil {
			return err
		}
		select {
		case h.broadcast <- outbound{channel: ch, data: data}:
		case <-h.done:
			return nil
		}
	}
	return nil
}

// ClientCount reports connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Stop() { close(h.done) }

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.Channels[msg.channel] {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					// slow consumer
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ReadPump drains control frames until the peer goes away.
func (h *Hub) ReadPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.Conn.Close()
	}()
	client.Conn.SetReadLimit(512)
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) WritePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
