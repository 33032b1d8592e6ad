package http

import (
	"context"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/service"
)

// CheckoutService is everything the REST surface needs from the service
// layer. Consumers define this interface, not the implementation.
type CheckoutService interface {
	InitiatePayment(ctx context.Context, req service.InitiatePaymentRequest) (*service.InitiatePaymentResult, error)
	VerifyPayment(ctx context.Context, orderID string) (*service.VerifyPaymentResult, error)
	CreateShipment(ctx context.Context, orderID string) (*service.ShipmentResult, error)
	RetryShipment(ctx context.Context, orderID, userID string) (*service.ShipmentResult, error)
	TrackShipment(ctx context.Context, waybill, refID string) (*delhivery.TrackingInfo, error)
	CheckServiceability(ctx context.Context, pincode string) (*delhivery.Serviceability, error)
	GetOrderTracking(ctx context.Context, orderID, userID string) (*service.OrderTracking, error)
	GenerateTransactionID(ctx context.Context, userID string) (string, error)
	Health(ctx context.Context) map[string]string
}
