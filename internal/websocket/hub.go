package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thereayou/lovenest/pkg/roomcode"
)

// MessageType identifies a frame on the change feed socket.
type MessageType string

const (
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"

	TypeSubscribe    MessageType = "subscribe"
	TypeUnsubscribe  MessageType = "unsubscribe"
	TypeSubscribed   MessageType = "subscribed"
	TypeUnsubscribed MessageType = "unsubscribed"
	TypeChange       MessageType = "change"
	TypeError        MessageType = "error"
)

type Message struct {
	Type           MessageType `json:"type"`
	SubscriptionID int64       `json:"subscription_id,omitempty"`
	Table          string      `json:"table,omitempty"`
	RoomCode       string      `json:"room_code,omitempty"`
	Change         *Change     `json:"change,omitempty"`
	Error          string      `json:"error,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	// subscription id -> topic
	subs map[int64]string
	mu   sync.RWMutex
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Clients per topic. A client with several subscriptions on one topic
	// appears once; its subs map resolves the ids.
	topics map[string]map[uuid.UUID]*Client

	// Empty means every table may be subscribed to.
	tables map[string]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Change

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub that accepts subscriptions to the given tables.
func NewHub(tables ...string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[uuid.UUID]*Client),
		topics:     make(map[string]map[uuid.UUID]*Client),
		tables:     make(map[string]bool, len(tables)),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Change, 256),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, t := range tables {
		h.tables[t] = true
	}
	return h
}

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case change := <-h.broadcast:
			h.deliver(change)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Send channels stay open: a read pump may still be answering a frame.
	for id, client := range h.clients {
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, id)
	}
	h.topics = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast queues a committed change for fan-out.
func (h *Hub) Broadcast(change Change) {
	select {
	case h.broadcast <- change:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	client.mu.Lock()
	for id, topic := range client.subs {
		delete(client.subs, id)
		h.dropTopicUnsafe(client, topic)
	}
	client.mu.Unlock()

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// Subscribe attaches subscription id of client to table, narrowed to
// roomCode unless it is empty.
func (h *Hub) Subscribe(client *Client, id int64, table, roomCode string) (string, error) {
	if len(h.tables) > 0 && !h.tables[table] {
		return "", ErrUnknownTable
	}
	topic := Topic(table, roomcode.Normalize(roomCode))

	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	defer client.mu.Unlock()

	if _, taken := client.subs[id]; taken {
		return "", ErrDuplicateSubID
	}
	client.subs[id] = topic

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[uuid.UUID]*Client)
	}
	h.topics[topic][client.ID] = client
	return topic, nil
}

func (h *Hub) Unsubscribe(client *Client, id int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	defer client.mu.Unlock()

	topic, ok := client.subs[id]
	if !ok {
		return ErrUnknownSubID
	}
	delete(client.subs, id)
	h.dropTopicUnsafe(client, topic)
	return nil
}

// dropTopicUnsafe removes client from topic if none of its remaining
// subscriptions use it. Both h.mu and client.mu must be held.
func (h *Hub) dropTopicUnsafe(client *Client, topic string) {
	for _, t := range client.subs {
		if t == topic {
			return
		}
	}
	if members, ok := h.topics[topic]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) deliver(change Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	topics := []string{Topic(change.Table, "")}
	if change.RoomCode != "" {
		topics = append(topics, Topic(change.Table, change.RoomCode))
	}

	for _, topic := range topics {
		for _, client := range h.topics[topic] {
			for _, id := range client.subscriptionsFor(topic) {
				msg := Message{
					Type:           TypeChange,
					SubscriptionID: id,
					Change:         &change,
					Timestamp:      time.Now(),
				}
				data, err := json.Marshal(msg)
				if err != nil {
					log.Printf("Failed to encode change for %s: %v", topic, err)
					continue
				}
				select {
				case client.Send <- data:
				default:
					log.Printf("Client %s send channel full", client.ID)
				}
			}
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// TopicSize reports how many clients listen on topic.
func (h *Hub) TopicSize(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
