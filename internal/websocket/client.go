package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		subs:   make(map[int64]string),
	}
}

// ReadPump handles subscribe and unsubscribe frames until the socket closes.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError(0, ErrInvalidMessage)
			continue
		}
		c.handle(&msg)
	}
}

func (c *Client) handle(msg *Message) {
	switch msg.Type {
	case TypePong, TypePing:
		return

	case TypeSubscribe:
		if msg.SubscriptionID <= 0 || msg.Table == "" {
			c.SendError(msg.SubscriptionID, ErrInvalidMessage)
			return
		}
		topic, err := c.Hub.Subscribe(c, msg.SubscriptionID, msg.Table, msg.RoomCode)
		if err != nil {
			c.SendError(msg.SubscriptionID, err)
			return
		}
		c.send(Message{Type: TypeSubscribed, SubscriptionID: msg.SubscriptionID, Table: msg.Table, RoomCode: topicRoom(topic)})

	case TypeUnsubscribe:
		if err := c.Hub.Unsubscribe(c, msg.SubscriptionID); err != nil {
			c.SendError(msg.SubscriptionID, err)
			return
		}
		c.send(Message{Type: TypeUnsubscribed, SubscriptionID: msg.SubscriptionID})

	default:
		c.SendError(msg.SubscriptionID, ErrInvalidMessage)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) send(msg Message) {
	msg.Timestamp = time.Now()
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to encode %s frame: %v", msg.Type, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("Client %s: %v", c.ID, ErrClientQueueFull)
	}
}

func (c *Client) SendError(subscriptionID int64, err error) {
	c.send(Message{Type: TypeError, SubscriptionID: subscriptionID, Error: err.Error()})
}

func (c *Client) subscriptionsFor(topic string) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []int64
	for id, t := range c.subs {
		if t == topic {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Client) Subscriptions() map[int64]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int64]string, len(c.subs))
	for id, t := range c.subs {
		out[id] = t
	}
	return out
}

func topicRoom(topic string) string {
	for i := len(topic) - 1; i >= 0; i-- {
		if topic[i] == ':' {
			if room := topic[i+1:]; room != "*" {
				return room
			}
			return ""
		}
	}
	return ""
}
