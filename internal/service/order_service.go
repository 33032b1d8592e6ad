// Package service orchestrates the checkout flow: payment initiation and
// verification against PhonePe, order materialization, and shipment handling
// through Delhivery.
package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/cache"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/config"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/phonepe"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/repository"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/txn"
)

// PaymentGateway is what the checkout flow needs from PhonePe.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, r phonepe.InitiateRequest) (map[string]any, error)
	GetOrderStatus(ctx context.Context, merchantOrderID string) (*phonepe.OrderStatus, error)
	AccessToken(ctx context.Context) (string, error)
}

// ShippingCarrier is what the checkout flow needs from Delhivery.
type ShippingCarrier interface {
	CreateShipment(ctx context.Context, r delhivery.ManifestRequest) (*delhivery.ManifestResult, error)
	Track(ctx context.Context, waybill, refID string) (*delhivery.TrackingInfo, error)
	CheckServiceability(ctx context.Context, pincode string) (*delhivery.Serviceability, error)
}

type OrderService struct {
	ledger   repository.OrderLedger
	gateway  PaymentGateway
	carrier  ShippingCarrier
	cache    cache.CarrierCache
	cfg      *config.Config
	txn      *txn.Generator
	validate *validator.Validate
}

func NewOrderService(
	ledger repository.OrderLedger,
	gateway PaymentGateway,
	carrier ShippingCarrier,
	carrierCache cache.CarrierCache,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		ledger:   ledger,
		gateway:  gateway,
		carrier:  carrier,
		cache:    carrierCache,
		cfg:      cfg,
		txn:      txn.NewGenerator(),
		validate: validator.New(),
	}
}
