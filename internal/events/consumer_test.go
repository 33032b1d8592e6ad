package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	calls []string
	err   error
}

func (m *mockVerifier) VerifyOrderPayment(_ context.Context, orderID string) error {
	m.calls = append(m.calls, orderID)
	return m.err
}

func TestHandleMessage_DrivesVerification(t *testing.T) {
	verifier := &mockVerifier{}
	c := &Consumer{verifier: verifier}

	value, err := json.Marshal(PaymentEvent{
		OrderID:    "TXN1",
		EventType:  "checkout.order.completed",
		ReceivedAt: time.Now(),
	})
	require.NoError(t, err)

	c.handleMessage(context.Background(), value)

	assert.Equal(t, []string{"TXN1"}, verifier.calls)
}

func TestHandleMessage_BadPayloadDropped(t *testing.T) {
	verifier := &mockVerifier{}
	c := &Consumer{verifier: verifier}

	c.handleMessage(context.Background(), []byte("{not json"))
	c.handleMessage(context.Background(), []byte(`{"event_type":"x"}`))

	assert.Empty(t, verifier.calls, "unparseable or id-less events never reach the verifier")
}

func TestHandleMessage_VerifierErrorDoesNotPanic(t *testing.T) {
	verifier := &mockVerifier{err: errors.New("gateway down")}
	c := &Consumer{verifier: verifier}

	value, _ := json.Marshal(PaymentEvent{OrderID: "TXN2"})
	c.handleMessage(context.Background(), value)

	assert.Equal(t, []string{"TXN2"}, verifier.calls)
}
