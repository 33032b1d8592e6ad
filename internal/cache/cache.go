package cache

import (
	"context"
	"errors"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
)

// CarrierCache holds short-lived carrier responses so repeated tracking and
// serviceability requests do not hammer the carrier API.
type CarrierCache interface {
	GetTracking(ctx context.Context, waybill string) (*delhivery.TrackingInfo, error)
	SetTracking(ctx context.Context, waybill string, info *delhivery.TrackingInfo) error
	GetServiceability(ctx context.Context, pincode string) (*delhivery.Serviceability, error)
	SetServiceability(ctx context.Context, pincode string, sv *delhivery.Serviceability) error
}

var ErrCacheMiss = errors.New("cache miss")
