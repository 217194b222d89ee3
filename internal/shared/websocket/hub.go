package websocket

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 64
)

// Hub keeps the registry of connected clients grouped in rooms, one room per
// auction, and routes outbound messages to them. All registry changes happen
// on the Run goroutine.
type Hub struct {
	rooms      map[uuid.UUID]map[*Client]struct{}
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// InboundMessages carries client frames to the module handlers
	InboundMessages chan *ClientMessage
	done            chan struct{}
	log             *zap.Logger
}

// Client is one websocket connection joined to an auction room
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	// Send is the buffered outbound queue, closed by the hub on unregister
	Send      chan []byte
	AuctionID uuid.UUID
	UserID    uuid.UUID
	ID        string
}

// Message is an outbound frame. A zero UserID targets the whole room, a
// non-nil Client targets that one connection only.
type Message struct {
	AuctionID uuid.UUID
	UserID    uuid.UUID
	Client    *Client
	Data      []byte
}

// ClientMessage wraps an inbound frame with the client that sent it
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms:           make(map[uuid.UUID]map[*Client]struct{}),
		broadcast:       make(chan *Message, 256),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		InboundMessages: make(chan *ClientMessage, 256),
		done:            make(chan struct{}),
		log:             log,
	}
}

// NewClient builds a client for conn, it still has to be registered
func (h *Hub) NewClient(conn *websocket.Conn, auctionID, userID uuid.UUID) *Client {
	return &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
		AuctionID: auctionID,
		UserID:    userID,
		ID:        uuid.NewString(),
	}
}

// Run serves the hub channels until ctx is done, then closes every client queue
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Info("Websocket hub started")
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for c := range room {
					close(c.Send)
				}
			}
			h.rooms = make(map[uuid.UUID]map[*Client]struct{})
			h.log.Info("Websocket hub stopped")
			return

		case c := <-h.register:
			room, ok := h.rooms[c.AuctionID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.AuctionID] = room
			}
			room[c] = struct{}{}
			h.log.Info("Client registered",
				zap.String("clientID", c.ID),
				zap.String("auctionID", c.AuctionID.String()),
				zap.String("userID", c.UserID.String()),
				zap.Int("roomSize", len(room)),
			)

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			room := h.rooms[m.AuctionID]
			if m.Client != nil {
				// the client may have left since the reply was queued
				if _, ok := room[m.Client]; ok {
					h.deliver(m.Client, m.Data)
				}
				continue
			}
			for c := range room {
				if m.UserID != uuid.Nil && c.UserID != m.UserID {
					continue
				}
				h.deliver(c, m.Data)
			}
		}
	}
}

// deliver must only be called from Run for a registered client
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
		// slow consumer
		h.log.Warn("Client send queue full, disconnecting",
			zap.String("clientID", c.ID),
			zap.String("auctionID", c.AuctionID.String()),
		)
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	room, ok := h.rooms[c.AuctionID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.Send)
	if len(room) == 0 {
		delete(h.rooms, c.AuctionID)
	}
	h.log.Info("Client unregistered",
		zap.String("clientID", c.ID),
		zap.String("auctionID", c.AuctionID.String()),
	)
}

// RegisterClient hands c to the hub, messages sent after it returns reach c.
// It reports false when the hub is stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient removes c, removing twice is harmless
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToAuction sends data to every client in the auction room
func (h *Hub) BroadcastToAuction(auctionID uuid.UUID, data []byte) {
	h.enqueue(&Message{AuctionID: auctionID, Data: data})
}

// SendToUser sends data to the connections userID holds in the auction room
func (h *Hub) SendToUser(auctionID, userID uuid.UUID, data []byte) {
	h.enqueue(&Message{AuctionID: auctionID, UserID: userID, Data: data})
}

// SendToClient sends data to c alone. It is dropped when c is no longer
// registered.
func (h *Hub) SendToClient(c *Client, data []byte) {
	h.enqueue(&Message{AuctionID: c.AuctionID, Client: c, Data: data})
}

func (h *Hub) enqueue(m *Message) {
	select {
	case h.broadcast <- m:
	default:
		h.log.Error("Broadcast channel is full, message dropped", zap.String("auctionID", m.AuctionID.String()))
	}
}
