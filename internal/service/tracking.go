package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/cache"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// TrackShipment returns carrier tracking by waybill, or by order reference
// when the waybill is blank. Responses are cached briefly.
func (s *OrderService) TrackShipment(ctx context.Context, waybill, refID string) (*delhivery.TrackingInfo, error) {
	if waybill == "" && refID == "" {
		return nil, fmt.Errorf("%w: waybill or order reference required", ErrValidation)
	}

	if waybill != "" {
		info, err := s.cache.GetTracking(ctx, waybill)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("Tracking cache get error: %v", err)
		}
	}

	info, err := s.carrier.Track(ctx, waybill, refID)
	if err != nil {
		if errors.Is(err, delhivery.ErrNotFound) {
			return nil, fmt.Errorf("%w: shipment", ErrNotFound)
		}
		return nil, fmt.Errorf("track shipment: %w", err)
	}

	if info.Waybill != "" {
		go func() {
			if err := s.cache.SetTracking(context.Background(), info.Waybill, info); err != nil {
				log.Printf("Tracking cache set error: %v", err)
			}
		}()
	}
	return info, nil
}

// CheckServiceability reports whether the carrier delivers to a pincode.
// Serviceability barely changes, so hits come from cache for hours.
func (s *OrderService) CheckServiceability(ctx context.Context, pincode string) (*delhivery.Serviceability, error) {
	if !pincodePattern.MatchString(pincode) {
		return nil, fmt.Errorf("%w: pincode must be 6 digits", ErrValidation)
	}

	sv, err := s.cache.GetServiceability(ctx, pincode)
	if err == nil {
		return sv, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Serviceability cache get error: %v", err)
	}

	sv, err = s.carrier.CheckServiceability(ctx, pincode)
	if err != nil {
		return nil, fmt.Errorf("check serviceability: %w", err)
	}

	go func() {
		if err := s.cache.SetServiceability(context.Background(), pincode, sv); err != nil {
			log.Printf("Serviceability cache set error: %v", err)
		}
	}()
	return sv, nil
}

// OrderTracking combines the ledger order with live carrier tracking.
type OrderTracking struct {
	Order         *domain.Order            `json:"order"`
	Tracking      *delhivery.TrackingInfo  `json:"tracking,omitempty"`
	TrackingError string                   `json:"trackingError,omitempty"`
}

// GetOrderTracking returns the caller's order together with its current
// carrier status. A tracking failure degrades to an error note; the order
// data is still returned.
func (s *OrderService) GetOrderTracking(ctx context.Context, orderID, userID string) (*OrderTracking, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, ErrForbidden
	}

	result := &OrderTracking{Order: order}
	if order.Shipment == nil || order.Shipment.Waybill == "" {
		return result, nil
	}

	info, err := s.TrackShipment(ctx, order.Shipment.Waybill, "")
	if err != nil {
		result.TrackingError = err.Error()
		return result, nil
	}
	result.Tracking = info
	return result, nil
}
