package service

import (
	"context"
	"fmt"
	"time"
)

// GenerateTransactionID issues a fresh merchant order id and records it for
// audit.
func (s *OrderService) GenerateTransactionID(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id required", ErrValidation)
	}

	id := s.txn.Generate()
	s.ledger.LogTransaction(ctx, map[string]any{
		"transaction_id": id,
		"user_id":        userID,
		"created_at":     time.Now(),
	})
	return id, nil
}

// VerifyOrderPayment is the webhook-driven entry point: same verification as
// the polling endpoint, but the result only matters through its ledger
// effects.
func (s *OrderService) VerifyOrderPayment(ctx context.Context, orderID string) error {
	_, err := s.VerifyPayment(ctx, orderID)
	return err
}

// Health reports component status for the health endpoint. The gateway check
// fetches a real access token so an expired credential surfaces here instead
// of on the next checkout.
func (s *OrderService) Health(ctx context.Context) map[string]string {
	components := map[string]string{
		"service": "ok",
		"mongodb": "ok",
		"phonepe": "ok",
	}
	if err := s.ledger.Ping(ctx); err != nil {
		components["mongodb"] = "unreachable"
	}
	if _, err := s.gateway.AccessToken(ctx); err != nil {
		components["phonepe"] = "unreachable"
	}
	return components
}
