package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ChangesChannel is the Redis pub/sub channel shared by every server
// instance.
const ChangesChannel = "lovenest:changes"

// Broker carries committed changes to the hub of every server instance.
type Broker interface {
	Publish(ctx context.Context, change Change) error
	Close() error
}

// LocalBroker hands changes straight to an in-process hub.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, change Change) error {
	b.hub.Broadcast(change)
	return nil
}

func (b *LocalBroker) Close() error { return nil }

// RedisBroker publishes changes on a Redis channel and feeds everything
// received on it into the local hub, so a write on one instance reaches
// sockets held by another.
type RedisBroker struct {
	client  *redis.Client
	hub     *Hub
	pubsub  *redis.PubSub
	channel string

	done      chan struct{}
	closeOnce sync.Once
}

// NewRedisBroker subscribes to ChangesChannel and starts relaying into hub.
// It returns once the subscription is confirmed.
func NewRedisBroker(ctx context.Context, client *redis.Client, hub *Hub) (*RedisBroker, error) {
	pubsub := client.Subscribe(ctx, ChangesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}

	b := &RedisBroker{
		client:  client,
		hub:     hub,
		pubsub:  pubsub,
		channel: ChangesChannel,
		done:    make(chan struct{}),
	}
	go b.relay()
	return b, nil
}

func (b *RedisBroker) relay() {
	defer close(b.done)

	for msg := range b.pubsub.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			log.Printf("Dropping malformed change from %s: %v", msg.Channel, err)
			continue
		}
		b.hub.Broadcast(change)
	}
}

func (b *RedisBroker) Publish(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

func (b *RedisBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.pubsub.Close()
		<-b.done
	})
	return err
}
