package client

import (
	"context"
	"log"
	"sort"
	"sync"
)

// RoomView keeps a local copy of one table's rows for the joined room,
// seeded by a list call and kept current by the change feed.
type RoomView[T Record] struct {
	client *Client
	feed   *Subscriber
	table  string

	less     func(a, b T) bool
	onChange func([]T)

	session RoomSession

	refreshMu sync.Mutex

	mu    sync.Mutex
	items []T
	sub   *Subscription

	// While a list call is in flight, feed changes are journaled so they can
	// be replayed over its result.
	recording bool
	journal   []viewChange[T]
}

type viewChange[T Record] struct {
	row     T
	id      string
	deleted bool
}

type ViewOption[T Record] func(*RoomView[T])

// OrderBy keeps the cached rows sorted with less after every change.
func OrderBy[T Record](less func(a, b T) bool) ViewOption[T] {
	return func(v *RoomView[T]) { v.less = less }
}

// OnChange registers fn to receive a snapshot after every change. It runs on
// the subscriber's dispatch goroutine.
func OnChange[T Record](fn func([]T)) ViewOption[T] {
	return func(v *RoomView[T]) { v.onChange = fn }
}

func NewRoomView[T Record](c *Client, feed *Subscriber, table string, opts ...ViewOption[T]) *RoomView[T] {
	v := &RoomView[T]{client: c, feed: feed, table: table}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *RoomView[T]) Table() string { return v.table }
func (v *RoomView[T]) Code() string  { return v.session.Code() }

// Join switches the view to code. The subscription is opened before the
// initial fetch so nothing written in between is lost; rows seen twice are
// merged by id. On failure the view is left empty and out of any room.
func (v *RoomView[T]) Join(ctx context.Context, code string) error {
	if _, err := parseRoom(code); err != nil {
		return err
	}
	if err := v.Leave(); err != nil {
		log.Printf("room view %s: leave: %v", v.table, err)
	}

	joined, err := v.session.Join(code)
	if err != nil {
		return err
	}

	sub, err := v.feed.Subscribe(ctx, joined, v.table, EventHandlers{
		OnInsert: v.upsertEvent,
		OnUpdate: v.upsertEvent,
		OnDelete: v.deleteEvent,
	})
	if err != nil {
		v.session.Leave()
		return err
	}

	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()

	if err := v.Refresh(ctx); err != nil {
		_ = v.Leave()
		return err
	}
	return nil
}

// Refresh re-fetches the room's rows and replaces the cache with them.
// Changes that arrive while the fetch is in flight are applied on top.
func (v *RoomView[T]) Refresh(ctx context.Context) error {
	code := v.session.Code()
	if code == "" {
		return &ValidationError{Field: "room_code", Message: "no room joined"}
	}

	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	v.mu.Lock()
	v.recording = true
	v.journal = nil
	v.mu.Unlock()

	rows, err := List[T](ctx, v.client, code, v.table)

	v.mu.Lock()
	journal := v.journal
	v.recording = false
	v.journal = nil
	if err != nil || v.sub == nil || v.session.Code() != code {
		v.mu.Unlock()
		return err
	}

	v.items = v.items[:0]
	for _, row := range rows {
		v.upsertLocked(row)
	}
	for _, ch := range journal {
		v.applyLocked(ch)
	}
	snapshot := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snapshot)
	return nil
}

// Leave drops the subscription and the cached rows. It is safe to call more
// than once.
func (v *RoomView[T]) Leave() error {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.items = nil
	v.mu.Unlock()
	v.session.Leave()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}

// Items returns a copy of the cached rows.
func (v *RoomView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *RoomView[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// Insert writes record to the joined room and caches the stored row at once,
// without waiting for its echo on the feed.
func (v *RoomView[T]) Insert(ctx context.Context, record any) (T, error) {
	var zero T
	code := v.session.Code()
	if code == "" {
		return zero, &ValidationError{Field: "room_code", Message: "no room joined"}
	}
	row, err := Insert[T](ctx, v.client, code, v.table, record)
	if err != nil {
		return zero, err
	}
	v.apply(viewChange[T]{row: *row})
	return *row, nil
}

func (v *RoomView[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	var zero T
	row, err := Update[T](ctx, v.client, v.table, id, patch)
	if err != nil {
		return zero, err
	}
	v.apply(viewChange[T]{row: *row})
	return *row, nil
}

func (v *RoomView[T]) Delete(ctx context.Context, id string) error {
	if err := Delete(ctx, v.client, v.table, id); err != nil {
		return err
	}
	v.apply(viewChange[T]{id: id, deleted: true})
	return nil
}

func (v *RoomView[T]) upsertEvent(ev Event) {
	var row T
	if err := ev.Decode(&row); err != nil {
		log.Printf("room view %s: %v", v.table, err)
		return
	}
	v.apply(viewChange[T]{row: row})
}

func (v *RoomView[T]) deleteEvent(ev Event) {
	if ev.Room() != v.session.Code() {
		return
	}
	var row T
	if err := ev.Decode(&row); err != nil {
		log.Printf("room view %s: %v", v.table, err)
		return
	}
	v.apply(viewChange[T]{id: row.RecordID(), deleted: true})
}

// apply records ch and notifies only when the cache actually changed.
func (v *RoomView[T]) apply(ch viewChange[T]) {
	v.mu.Lock()
	if v.sub == nil {
		v.mu.Unlock()
		return
	}
	if v.recording {
		v.journal = append(v.journal, ch)
	}
	if !v.applyLocked(ch) {
		v.mu.Unlock()
		return
	}
	snapshot := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snapshot)
}

func (v *RoomView[T]) applyLocked(ch viewChange[T]) bool {
	if ch.deleted {
		return v.removeLocked(ch.id)
	}
	return v.upsertLocked(ch.row)
}

func (v *RoomView[T]) notify(snapshot []T) {
	if v.onChange != nil {
		v.onChange(snapshot)
	}
}

func (v *RoomView[T]) indexLocked(id string) int {
	for i, it := range v.items {
		if it.RecordID() == id {
			return i
		}
	}
	return -1
}

// upsertLocked caches row unless it belongs to another room. Rows without a
// room code are refused too.
func (v *RoomView[T]) upsertLocked(row T) bool {
	if row.RecordRoom() != v.session.Code() {
		return false
	}
	if i := v.indexLocked(row.RecordID()); i >= 0 {
		v.items[i] = row
	} else {
		v.items = append(v.items, row)
	}
	if v.less != nil {
		sort.SliceStable(v.items, func(i, j int) bool { return v.less(v.items[i], v.items[j]) })
	}
	return true
}

func (v *RoomView[T]) removeLocked(id string) bool {
	i := v.indexLocked(id)
	if i < 0 {
		return false
	}
	v.items = append(v.items[:i], v.items[i+1:]...)
	return true
}

func (v *RoomView[T]) snapshotLocked() []T {
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}
