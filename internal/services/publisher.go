package services

import (
	"context"
	"log"

	"github.com/thereayou/lovenest/internal/websocket"
)

// Publisher announces committed writes on the change feed. Failures are
// logged rather than returned: the write has already happened.
type Publisher struct {
	broker websocket.Broker
}

func NewPublisher(broker websocket.Broker) *Publisher {
	return &Publisher{broker: broker}
}

func (p *Publisher) Publish(ctx context.Context, event websocket.EventType, table, roomCode string, row any) {
	if p == nil || p.broker == nil {
		return
	}
	change, err := websocket.NewChange(event, table, roomCode, row)
	if err != nil {
		log.Printf("Failed to build %s change for %s: %v", event, table, err)
		return
	}
	if err := p.broker.Publish(ctx, change); err != nil {
		log.Printf("Failed to publish %s change for %s: %v", event, table, err)
	}
}

func (p *Publisher) Inserted(ctx context.Context, table, roomCode string, row any) {
	p.Publish(ctx, websocket.EventInsert, table, roomCode, row)
}

func (p *Publisher) Updated(ctx context.Context, table, roomCode string, row any) {
	p.Publish(ctx, websocket.EventUpdate, table, roomCode, row)
}

func (p *Publisher) Deleted(ctx context.Context, table, roomCode string, row any) {
	p.Publish(ctx, websocket.EventDelete, table, roomCode, row)
}
