// Package events moves payment webhook notifications through Kafka so the
// webhook endpoint can acknowledge the gateway immediately and verification
// happens out of band.
package events

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is the Kafka payload for a gateway webhook notification.
type PaymentEvent struct {
	EventID    string         `json:"event_id"`
	OrderID    string         `json:"order_id"`
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// NewPaymentEvent stamps the notification with a fresh event id for
// dedup and tracing in the consumer logs.
func NewPaymentEvent(orderID, eventType string, payload map[string]any) PaymentEvent {
	return PaymentEvent{
		EventID:    uuid.NewString(),
		OrderID:    orderID,
		EventType:  eventType,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
}
