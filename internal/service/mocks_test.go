package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/cache"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/phonepe"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/repository"
)

// MockLedger is an in-memory OrderLedger with the same claim semantics as
// the MongoDB implementation.
type MockLedger struct {
	mu       sync.Mutex
	pending  map[string]*domain.PendingOrder
	orders   map[string]*domain.Order
	payments map[string]*domain.PaymentRequest

	PaymentErrors      []map[string]any
	VerificationErrors []map[string]any
	Transactions       []map[string]any

	CreateOrderErr error
	PingErr        error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{
		pending:  make(map[string]*domain.PendingOrder),
		orders:   make(map[string]*domain.Order),
		payments: make(map[string]*domain.PaymentRequest),
	}
}

func (m *MockLedger) CreatePendingOrder(_ context.Context, order *domain.PendingOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[order.ID] = order
	return nil
}

func (m *MockLedger) ClaimPendingOrder(_ context.Context, orderID string) (*domain.PendingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.pending[orderID]
	if !ok {
		return nil, repository.ErrPendingOrderNotFound
	}
	delete(m.pending, orderID)
	return order, nil
}

func (m *MockLedger) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.CreateOrderErr != nil {
		return m.CreateOrderErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.ID]; exists {
		return fmt.Errorf("duplicate order %s", order.ID)
	}
	m.orders[order.ID] = order
	return nil
}

func (m *MockLedger) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockLedger) SetOrderShipment(_ context.Context, orderID string, shipment *domain.ShipmentInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = domain.OrderStatusProcessing
	order.Shipment = shipment
	order.ShippingStatus = shipment.Status
	order.ShippingPartner = "delhivery"
	order.DelhiveryError = ""
	order.DelhiveryRetryNeeded = false
	return nil
}

func (m *MockLedger) MarkOrderShipmentFailed(_ context.Context, orderID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.DelhiveryError = reason
	order.DelhiveryRetryNeeded = true
	order.ShippingStatus = "creation_failed"
	return nil
}

func (m *MockLedger) CreatePaymentRequest(_ context.Context, pr *domain.PaymentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[pr.OrderID] = pr
	return nil
}

func (m *MockLedger) GetPaymentRequest(_ context.Context, orderID string) (*domain.PaymentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.payments[orderID]
	if !ok {
		return nil, repository.ErrPaymentRequestNotFound
	}
	copied := *pr
	return &copied, nil
}

func (m *MockLedger) SetPaymentInitiateResponse(_ context.Context, orderID string, resp map[string]any) error {
	return m.updatePayment(orderID, func(pr *domain.PaymentRequest) {
		pr.InitiateResponse = resp
	})
}

func (m *MockLedger) MarkPaymentCompleted(_ context.Context, orderID string, resp map[string]any) error {
	now := time.Now()
	return m.updatePayment(orderID, func(pr *domain.PaymentRequest) {
		pr.Status = domain.PaymentStatusCompleted
		pr.VerificationResponse = resp
		pr.VerifiedAt = &now
		pr.CompletedAt = &now
	})
}

func (m *MockLedger) MarkPaymentPending(_ context.Context, orderID string, resp map[string]any) error {
	now := time.Now()
	return m.updatePayment(orderID, func(pr *domain.PaymentRequest) {
		if pr.Status.IsTerminal() {
			return
		}
		pr.Status = domain.PaymentStatusPending
		pr.VerificationResponse = resp
		pr.VerifiedAt = &now
	})
}

func (m *MockLedger) MarkPaymentFailed(_ context.Context, orderID string, reason string, resp map[string]any) error {
	now := time.Now()
	return m.updatePayment(orderID, func(pr *domain.PaymentRequest) {
		pr.Status = domain.PaymentStatusFailed
		pr.VerificationResponse = resp
		pr.FailureReason = reason
		pr.VerifiedAt = &now
		pr.FailedAt = &now
	})
}

func (m *MockLedger) updatePayment(orderID string, apply func(*domain.PaymentRequest)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.payments[orderID]
	if !ok {
		return repository.ErrPaymentRequestNotFound
	}
	apply(pr)
	return nil
}

func (m *MockLedger) LogPaymentError(_ context.Context, entry map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PaymentErrors = append(m.PaymentErrors, entry)
}

func (m *MockLedger) LogVerificationError(_ context.Context, entry map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerificationErrors = append(m.VerificationErrors, entry)
}

func (m *MockLedger) LogTransaction(_ context.Context, entry map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transactions = append(m.Transactions, entry)
}

func (m *MockLedger) DeleteOlderThan(context.Context, string, time.Time, int) (int64, error) {
	return 0, nil
}

func (m *MockLedger) Ping(context.Context) error {
	return m.PingErr
}

func (m *MockLedger) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// MockGateway implements PaymentGateway.
type MockGateway struct {
	mu          sync.Mutex
	InitResp    map[string]any
	InitErr     error
	Status      *phonepe.OrderStatus
	StatusErr   error
	TokenErr    error
	statusCalls int
}

func (m *MockGateway) InitiatePayment(context.Context, phonepe.InitiateRequest) (map[string]any, error) {
	return m.InitResp, m.InitErr
}

func (m *MockGateway) GetOrderStatus(context.Context, string) (*phonepe.OrderStatus, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()
	return m.Status, m.StatusErr
}

func (m *MockGateway) AccessToken(context.Context) (string, error) {
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	return "mock-token", nil
}

func (m *MockGateway) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// MockCarrier implements ShippingCarrier.
type MockCarrier struct {
	mu            sync.Mutex
	ManifestRes   *delhivery.ManifestResult
	ManifestErr   error
	manifestCalls int
	LastManifest  delhivery.ManifestRequest

	TrackInfo  *delhivery.TrackingInfo
	TrackErr   error
	trackCalls int

	Sv      *delhivery.Serviceability
	SvErr   error
	svCalls int
}

func (m *MockCarrier) CreateShipment(_ context.Context, r delhivery.ManifestRequest) (*delhivery.ManifestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifestCalls++
	m.LastManifest = r
	return m.ManifestRes, m.ManifestErr
}

func (m *MockCarrier) Track(context.Context, string, string) (*delhivery.TrackingInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackCalls++
	return m.TrackInfo, m.TrackErr
}

func (m *MockCarrier) CheckServiceability(context.Context, string) (*delhivery.Serviceability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.svCalls++
	return m.Sv, m.SvErr
}

func (m *MockCarrier) ManifestCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifestCalls
}

func (m *MockCarrier) TrackCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackCalls
}

func (m *MockCarrier) SvCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.svCalls
}

// MockCache implements cache.CarrierCache in memory.
type MockCache struct {
	mu       sync.Mutex
	tracking map[string]*delhivery.TrackingInfo
	sv       map[string]*delhivery.Serviceability
}

func NewMockCache() *MockCache {
	return &MockCache{
		tracking: make(map[string]*delhivery.TrackingInfo),
		sv:       make(map[string]*delhivery.Serviceability),
	}
}

func (m *MockCache) GetTracking(_ context.Context, waybill string) (*delhivery.TrackingInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tracking[waybill]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return info, nil
}

func (m *MockCache) SetTracking(_ context.Context, waybill string, info *delhivery.TrackingInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracking[waybill] = info
	return nil
}

func (m *MockCache) GetServiceability(_ context.Context, pincode string) (*delhivery.Serviceability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sv, ok := m.sv[pincode]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return sv, nil
}

func (m *MockCache) SetServiceability(_ context.Context, pincode string, sv *delhivery.Serviceability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sv[pincode] = sv
	return nil
}
