package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
)

// Tracking goes stale quickly; serviceability for a pincode barely changes.
const (
	trackingTTL       = 5 * time.Minute
	serviceabilityTTL = 12 * time.Hour
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

type RedisCache struct {
	client *redis.Client
}

func (r *RedisCache) GetTracking(ctx context.Context, waybill string) (*delhivery.TrackingInfo, error) {
	var info delhivery.TrackingInfo
	if err := r.get(ctx, trackingKey(waybill), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *RedisCache) SetTracking(ctx context.Context, waybill string, info *delhivery.TrackingInfo) error {
	return r.set(ctx, trackingKey(waybill), info, trackingTTL)
}

func (r *RedisCache) GetServiceability(ctx context.Context, pincode string) (*delhivery.Serviceability, error) {
	var sv delhivery.Serviceability
	if err := r.get(ctx, serviceabilityKey(pincode), &sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

func (r *RedisCache) SetServiceability(ctx context.Context, pincode string, sv *delhivery.Serviceability) error {
	return r.set(ctx, serviceabilityKey(pincode), sv, serviceabilityTTL)
}

func (r *RedisCache) get(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal cached value failed: %w", err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached value failed: %w", err)
	}

	// Jitter spreads expiry so a burst of cached pincodes does not refill at
	// the same moment.
	jitter := time.Duration(rand.Intn(30)) * time.Second
	if err := r.client.Set(ctx, key, data, ttl+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func trackingKey(waybill string) string {
	return fmt.Sprintf("tracking:%s", waybill)
}

func serviceabilityKey(pincode string) string {
	return fmt.Sprintf("serviceability:%s", pincode)
}
