package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one row change delivered to a subscription. New is set for
// inserts and updates, Old for deletes.
type Event struct {
	Type     EventType       `json:"event"`
	Table    string          `json:"table"`
	RoomCode string          `json:"room_code,omitempty"`
	New      json.RawMessage `json:"new,omitempty"`
	Old      json.RawMessage `json:"old,omitempty"`
}

// Decode unmarshals the row carried by the event into v.
func (e Event) Decode(v any) error {
	data := e.New
	if e.Type == EventDelete || len(data) == 0 {
		data = e.Old
	}
	if len(data) == 0 {
		return errors.New("event carries no row")
	}
	return json.Unmarshal(data, v)
}

// Room returns the room the changed row belongs to: the new row's code, the
// old row's code, then the envelope's.
func (e Event) Room() string {
	var row struct {
		RoomCode string `json:"room_code"`
	}
	for _, data := range []json.RawMessage{e.New, e.Old} {
		if len(data) == 0 {
			continue
		}
		if json.Unmarshal(data, &row) == nil && row.RoomCode != "" {
			return row.RoomCode
		}
	}
	return e.RoomCode
}

type EventHandlers struct {
	OnInsert func(Event)
	OnUpdate func(Event)
	OnDelete func(Event)
}

func (h EventHandlers) dispatch(ev Event) {
	var fn func(Event)
	switch ev.Type {
	case EventInsert:
		fn = h.OnInsert
	case EventUpdate:
		fn = h.OnUpdate
	case EventDelete:
		fn = h.OnDelete
	}
	if fn != nil {
		fn(ev)
	}
}

type frame struct {
	Type           string `json:"type"`
	SubscriptionID int64  `json:"subscription_id,omitempty"`
	Table          string `json:"table,omitempty"`
	RoomCode       string `json:"room_code,omitempty"`
	Change         *Event `json:"change,omitempty"`
	Error          string `json:"error,omitempty"`
}

type delivery struct {
	sub *Subscription
	ev  Event
}

const (
	writeWait     = 10 * time.Second
	dispatchQueue = 256
)

// Subscriber holds one change feed socket. Handlers of every subscription run
// on a single goroutine, one event at a time, in arrival order.
type Subscriber struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	subs    map[int64]*Subscription
	pending map[int64]chan error

	queue     chan delivery
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// DialFeed opens the change feed with the client's token.
func (c *Client) DialFeed(ctx context.Context) (*Subscriber, error) {
	return Dial(ctx, c.baseURL, c.Token())
}

// Dial connects to the /ws endpoint of the server at baseURL.
func Dial(ctx context.Context, baseURL, token string) (*Subscriber, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/ws")
	if err != nil {
		return nil, &ValidationError{Field: "base_url", Message: err.Error(), Err: err}
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		rerr := &RemoteError{Err: err}
		if resp != nil {
			rerr.Status = resp.StatusCode
			if resp.StatusCode == http.StatusUnauthorized {
				rerr.Code = "unauthorized"
			}
		}
		return nil, rerr
	}

	s := &Subscriber{
		conn:    conn,
		subs:    make(map[int64]*Subscription),
		pending: make(map[int64]chan error),
		queue:   make(chan delivery, dispatchQueue),
		done:    make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readLoop()
	go s.dispatchLoop()
	return s, nil
}

func (s *Subscriber) readLoop() {
	defer s.wg.Done()
	defer close(s.queue)
	defer s.failPending(ErrClosed)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("change feed read error: %v", err)
				}
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("change feed: undecodable frame: %v", err)
			continue
		}

		switch f.Type {
		case "subscribed":
			s.resolve(f.SubscriptionID, nil)
		case "error":
			s.resolve(f.SubscriptionID, &RemoteError{Code: "subscription", Message: f.Error, Err: errors.New(f.Error)})
		case "change":
			if f.Change == nil {
				continue
			}
			s.mu.Lock()
			sub := s.subs[f.SubscriptionID]
			s.mu.Unlock()
			if sub == nil {
				continue
			}
			select {
			case s.queue <- delivery{sub: sub, ev: *f.Change}:
			case <-s.done:
				return
			}
		}
	}
}

func (s *Subscriber) dispatchLoop() {
	defer s.wg.Done()
	for d := range s.queue {
		d.sub.deliver(d.ev)
	}
}

func (s *Subscriber) resolve(id int64, err error) {
	s.mu.Lock()
	ch, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if ok {
		ch <- err
	}
}

func (s *Subscriber) failPending(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		ch <- err
		delete(s.pending, id)
	}
}

func (s *Subscriber) write(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

// Subscribe listens to changes of table in roomCode. Events whose room code
// differs from roomCode, including events that carry none, are dropped before
// reaching h.
func (s *Subscriber) Subscribe(ctx context.Context, roomCode, table string, h EventHandlers) (*Subscription, error) {
	return s.subscribe(ctx, roomCode, table, false, h)
}

// SubscribeTable asks the server for every change of table and filters on
// roomCode locally.
func (s *Subscriber) SubscribeTable(ctx context.Context, roomCode, table string, h EventHandlers) (*Subscription, error) {
	return s.subscribe(ctx, roomCode, table, true, h)
}

func (s *Subscriber) subscribe(ctx context.Context, roomCode, table string, tableWide bool, h EventHandlers) (*Subscription, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, &ValidationError{Field: "table", Message: "table is required"}
	}

	select {
	case <-s.done:
		return nil, ErrClosed
	default:
	}

	ack := make(chan error, 1)
	s.mu.Lock()
	s.nextID++
	sub := &Subscription{id: s.nextID, table: table, room: code, handlers: h, s: s}
	s.subs[sub.id] = sub
	s.pending[sub.id] = ack
	s.mu.Unlock()

	f := frame{Type: "subscribe", SubscriptionID: sub.id, Table: table}
	if !tableWide {
		f.RoomCode = code
	}
	if err := s.write(f); err != nil {
		s.forget(sub.id)
		return nil, &RemoteError{Err: err}
	}

	select {
	case err := <-ack:
		if err != nil {
			s.forget(sub.id)
			return nil, err
		}
		return sub, nil
	case <-ctx.Done():
		s.forget(sub.id)
		// The server may still accept the subscribe frame; release its topic.
		if err := s.write(frame{Type: "unsubscribe", SubscriptionID: sub.id}); err != nil {
			log.Printf("change feed: unsubscribe %s after cancel: %v", table, err)
		}
		return nil, ctx.Err()
	}
}

func (s *Subscriber) forget(id int64) {
	s.mu.Lock()
	delete(s.subs, id)
	delete(s.pending, id)
	s.mu.Unlock()
}

// Close ends every subscription and the socket. Further calls are no-ops.
func (s *Subscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		for _, sub := range s.subs {
			sub.closed.Store(true)
		}
		s.mu.Unlock()

		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		s.writeMu.Unlock()

		err = s.conn.Close()
		s.wg.Wait()
	})
	return err
}

// Subscription is one (table, room) listener on a Subscriber.
type Subscription struct {
	id       int64
	table    string
	room     string
	handlers EventHandlers
	s        *Subscriber

	closed    atomic.Bool
	closeOnce sync.Once
}

func (sub *Subscription) Table() string    { return sub.table }
func (sub *Subscription) RoomCode() string { return sub.room }

func (sub *Subscription) deliver(ev Event) {
	if sub.closed.Load() {
		return
	}
	if ev.Room() != sub.room {
		return
	}
	sub.handlers.dispatch(ev)
}

// Unsubscribe stops delivery. Calling it again, or after the subscriber has
// closed, does nothing.
func (sub *Subscription) Unsubscribe() error {
	var err error
	sub.closeOnce.Do(func() {
		sub.closed.Store(true)
		sub.s.forget(sub.id)

		select {
		case <-sub.s.done:
			return
		default:
		}
		if werr := sub.s.write(frame{Type: "unsubscribe", SubscriptionID: sub.id}); werr != nil {
			err = fmt.Errorf("unsubscribe %s: %w", sub.table, werr)
		}
	})
	return err
}
