// Package repository persists the checkout ledger in MongoDB: pending
// orders, confirmed orders, payment requests and diagnostic logs.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrPendingOrderNotFound   = errors.New("pending order not found")
	ErrPaymentRequestNotFound = errors.New("payment request not found")
)

// Collection names swept by the retention job.
const (
	CollPendingOrders      = "pending_orders"
	CollOrders             = "orders"
	CollPaymentRequests    = "payment_requests"
	CollPaymentErrors      = "payment_errors"
	CollVerificationErrors = "verification_errors"
	CollTransactionLogs    = "transaction_logs"
)

// OrderLedger defines the ledger operations the checkout flow needs.
// Consumers define this interface, not the MongoDB implementation.
type OrderLedger interface {
	CreatePendingOrder(ctx context.Context, order *domain.PendingOrder) error
	// ClaimPendingOrder atomically removes and returns the pending order, so
	// that exactly one of several concurrent confirmations materializes it.
	ClaimPendingOrder(ctx context.Context, orderID string) (*domain.PendingOrder, error)

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	SetOrderShipment(ctx context.Context, orderID string, shipment *domain.ShipmentInfo) error
	MarkOrderShipmentFailed(ctx context.Context, orderID string, reason string) error

	CreatePaymentRequest(ctx context.Context, pr *domain.PaymentRequest) error
	GetPaymentRequest(ctx context.Context, orderID string) (*domain.PaymentRequest, error)
	SetPaymentInitiateResponse(ctx context.Context, orderID string, resp map[string]any) error
	MarkPaymentCompleted(ctx context.Context, orderID string, resp map[string]any) error
	MarkPaymentPending(ctx context.Context, orderID string, resp map[string]any) error
	MarkPaymentFailed(ctx context.Context, orderID string, reason string, resp map[string]any) error

	LogPaymentError(ctx context.Context, entry map[string]any)
	LogVerificationError(ctx context.Context, entry map[string]any)
	LogTransaction(ctx context.Context, entry map[string]any)

	DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time, batch int) (int64, error)

	Ping(ctx context.Context) error
}
