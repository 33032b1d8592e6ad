package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/repository"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/shipping"
)

func (s *OrderService) shippingDefaults() shipping.Defaults {
	d := s.cfg.Delhivery.Defaults
	return shipping.Defaults{
		Name:         d.Name,
		AddressLine1: d.AddressLine1,
		City:         d.City,
		State:        d.State,
		PinCode:      d.PinCode,
		Phone:        d.Phone,
		Email:        d.Email,
	}
}

// manifestShipment registers the order with the carrier and records the
// outcome. Failures only flag the order for retry; the confirmed order
// itself is never rolled back.
func (s *OrderService) manifestShipment(ctx context.Context, order *domain.Order) {
	result, err := s.createManifest(ctx, order)
	if err != nil {
		log.Printf("Shipment creation failed for order %s: %v", order.ID, err)
		if markErr := s.ledger.MarkOrderShipmentFailed(ctx, order.ID, err.Error()); markErr != nil {
			log.Printf("Failed to flag shipment retry for %s: %v", order.ID, markErr)
		}
		order.DelhiveryError = err.Error()
		order.DelhiveryRetryNeeded = true
		order.ShippingStatus = "creation_failed"
		return
	}

	shipment := &domain.ShipmentInfo{
		Waybill:      result.Waybill,
		Status:       "created",
		TrackingURL:  result.TrackingURL,
		PaymentMode:  "Prepaid",
		UsedDefaults: result.UsedDefaults,
		CreatedAt:    time.Now(),
		Response:     result.Raw,
	}
	if err := s.ledger.SetOrderShipment(ctx, order.ID, shipment); err != nil {
		log.Printf("Failed to store shipment for %s: %v", order.ID, err)
	}
	order.Shipment = shipment
	order.ShippingStatus = "created"
	order.ShippingPartner = "delhivery"
	order.DelhiveryError = ""
	order.DelhiveryRetryNeeded = false
	order.Status = domain.OrderStatusProcessing
}

func (s *OrderService) createManifest(ctx context.Context, order *domain.Order) (*delhivery.ManifestResult, error) {
	defaults := s.shippingDefaults()
	// Strict pin validation here: a junk pincode in a manifest gets the
	// parcel stuck at the hub, better to ship against the warehouse default.
	record := shipping.Normalize(order.ShippingAddress, order.CustomerDetails, defaults, shipping.PinPolicyStrict)

	manifestCtx, cancel := context.WithTimeout(ctx, s.cfg.ManifestTimeout)
	defer cancel()

	return s.carrier.CreateShipment(manifestCtx, delhivery.ManifestRequest{
		OrderID:      order.ID,
		Ship:         record,
		Items:        order.Items,
		PaymentMode:  "Prepaid",
		TotalAmount:  order.Total,
		OrderDate:    order.CreatedAt,
		UsedDefaults: record.UsedDefaultPin(defaults),
	})
}

type ShipmentResult struct {
	OrderID  string               `json:"orderId"`
	Shipment *domain.ShipmentInfo `json:"shipment"`
}

// CreateShipment manifests an existing order on demand.
func (s *OrderService) CreateShipment(ctx context.Context, orderID string) (*ShipmentResult, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Shipment != nil && order.Shipment.Waybill != "" {
		return &ShipmentResult{OrderID: orderID, Shipment: order.Shipment}, nil
	}

	result, err := s.createManifest(ctx, order)
	if err != nil {
		if markErr := s.ledger.MarkOrderShipmentFailed(ctx, orderID, err.Error()); markErr != nil {
			log.Printf("Failed to flag shipment retry for %s: %v", orderID, markErr)
		}
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	shipment := &domain.ShipmentInfo{
		Waybill:      result.Waybill,
		Status:       "created",
		TrackingURL:  result.TrackingURL,
		PaymentMode:  "Prepaid",
		UsedDefaults: result.UsedDefaults,
		CreatedAt:    time.Now(),
		Response:     result.Raw,
	}
	if err := s.ledger.SetOrderShipment(ctx, orderID, shipment); err != nil {
		return nil, fmt.Errorf("store shipment: %w", err)
	}
	return &ShipmentResult{OrderID: orderID, Shipment: shipment}, nil
}

// RetryShipment re-manifests an order whose earlier carrier call failed.
func (s *OrderService) RetryShipment(ctx context.Context, orderID, userID string) (*ShipmentResult, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Shipment != nil && order.Shipment.Waybill != "" {
		return &ShipmentResult{OrderID: orderID, Shipment: order.Shipment}, nil
	}

	return s.CreateShipment(ctx, orderID)
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id required", ErrValidation)
	}
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	return order, nil
}
