// Package events publishes billing lifecycle events to RabbitMQ so
// downstream consumers (customer display, reporting) learn about printed
// bills without polling.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/quickserve/pos-billing/internal/domain/order"
)

// Exchange is the topic exchange all billing events are published to.
const Exchange = "billing.events"

// RoutingKeyBillPrinted routes bill-printed events.
const RoutingKeyBillPrinted = "bill.printed"

// BillPrinted is emitted after a bill is locked and printed.
type BillPrinted struct {
	EventID         string    `json:"event_id"`
	MasterID        string    `json:"master_id"`
	FulfillmentType string    `json:"fulfillment_type"`
	NetTotal        string    `json:"net_total"`
	PrintedAt       time.Time `json:"printed_at"`
}

// Publisher emits billing events over a single AMQP channel. Channels are
// not safe for concurrent publishing, so publishes are serialized.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
}

// NewPublisher dials the broker and declares the billing exchange.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishBillPrinted emits a bill-printed event for the order snapshot.
func (p *Publisher) PublishBillPrinted(ctx context.Context, o *order.Order) error {
	billable := order.SelectBillableItems(o.Items, o.FulfillmentType)
	totals := order.ComputeTotals(billable, o.Discount, o.AdditionalCharges)

	evt := BillPrinted{
		EventID:         uuid.New().String(),
		MasterID:        o.MasterID,
		FulfillmentType: o.FulfillmentType.String(),
		NetTotal:        totals.NetTotal.StringFixed(2),
		PrintedAt:       time.Now().UTC(),
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, Exchange, RoutingKeyBillPrinted, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.EventID,
		Timestamp:    evt.PrintedAt,
		Body:         body,
	})
	if err != nil {
		return errors.Wrap(err, "publish bill.printed")
	}
	return nil
}
