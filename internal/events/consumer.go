package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// PaymentVerifier re-checks a payment against the gateway. The webhook
// payload is never trusted on its own.
type PaymentVerifier interface {
	VerifyOrderPayment(ctx context.Context, orderID string) error
}

type Consumer struct {
	verifier PaymentVerifier
	reader   *kafka.Reader
}

func NewConsumer(verifier PaymentVerifier, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{verifier: verifier, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading payment event: %v", err)
		return
	}

	c.handleMessage(ctx, m.Value)
}

// handleMessage decodes one event and drives verification. Failures are
// logged and dropped; the next gateway poll or webhook covers them.
func (c *Consumer) handleMessage(ctx context.Context, value []byte) {
	var event PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("error parsing payment event: %v", err)
		return
	}
	if event.OrderID == "" {
		log.Printf("payment event without order id, dropping")
		return
	}

	if err := c.verifier.VerifyOrderPayment(ctx, event.OrderID); err != nil {
		log.Printf("payment verification from webhook failed for %s: %v", event.OrderID, err)
	}
}
