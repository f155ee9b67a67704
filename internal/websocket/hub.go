package websocket

import (
	"encoding/json"
	"sync"

	"github.com/ikkim/foodgram-backend/pkg/logger"
)

// Event is the envelope written to feed subscribers.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is one websocket session of a user.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

// NewClient creates a session bound to hub. conn may be nil in tests.
func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// Hub tracks live sessions per user and fans recipe events out to them.
type Hub struct {
	// userID -> sessions (one per device)
	clients map[uint][]*Client

	// register and unregister share one queue so they are applied in call order
	sessions chan sessionOp
	delivery chan *delivery
	done     chan struct{}

	mu sync.RWMutex
}

type sessionOp struct {
	client *Client
	join   bool
}

type delivery struct {
	userIDs []uint
	message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[uint][]*Client),
		sessions: make(chan sessionOp, 512),
		delivery: make(chan *delivery, 1024),
		done:     make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case op := <-h.sessions:
			if op.join {
				h.add(op.client)
			} else {
				h.remove(op.client)
			}

		case d := <-h.delivery:
			h.deliver(d)
		}
	}
}

// Stop terminates Run and closes every session.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client.UserID] = append(h.clients[client.UserID], client)
	sessions := len(h.clients[client.UserID])
	h.mu.Unlock()

	logger.Info("WebSocket client registered", map[string]interface{}{
		"user_id":        client.UserID,
		"total_sessions": sessions,
	})
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}
	if len(newList) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = newList
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(newList),
	})
}

func (h *Hub) deliver(d *delivery) {
	var stale []*Client

	h.mu.RLock()
	for _, userID := range d.userIDs {
		for _, client := range h.clients[userID] {
			select {
			case client.Send <- d.message:
			default:
				stale = append(stale, client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": userID,
				})
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.remove(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// SendToUsers queues an event for every live session of userIDs.
// Events are dropped when the hub is saturated; the feed is best effort.
func (h *Hub) SendToUsers(userIDs []uint, eventType string, payload interface{}) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		logger.Error("Failed to marshal feed event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}

	select {
	case h.delivery <- &delivery{userIDs: userIDs, message: data}:
	default:
		logger.Warn("Feed delivery queue full, event dropped", map[string]interface{}{
			"type":       eventType,
			"recipients": len(userIDs),
		})
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.sessions <- sessionOp{client: client, join: true}:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.sessions <- sessionOp{client: client}:
	case <-h.done:
	}
}

// IsUserOnline reports whether userID has at least one live session.
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// OnlineUsers returns the number of users with a live session.
func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
