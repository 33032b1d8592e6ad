package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/config"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/phonepe"
)

func testServiceConfig() *config.Config {
	return &config.Config{
		OutboundTimeout: 15 * time.Second,
		ManifestTimeout: 30 * time.Second,
		Delhivery: config.DelhiveryConfig{
			Defaults: config.CustomerDefaults{
				Name:         "Customer",
				AddressLine1: "New Abadi, Street No 18",
				City:         "Hanumangarh Town",
				State:        "Rajasthan",
				PinCode:      "335513",
				Phone:        "7800119990",
				Email:        "customer@example.com",
			},
		},
	}
}

func newTestService(ledger *MockLedger, gateway *MockGateway, carrier *MockCarrier) (*OrderService, *MockCache) {
	mc := NewMockCache()
	return NewOrderService(ledger, gateway, carrier, mc, testServiceConfig()), mc
}

func initiateFixture() InitiatePaymentRequest {
	return InitiatePaymentRequest{
		Amount:      499,
		UserID:      "user123",
		RedirectURL: "https://shop.example.com/payment-status",
		Items: []domain.LineItem{
			{Name: "Vitamin C", Price: 249.5, OriginalPrice: 300, Quantity: 2},
		},
		CustomerDetails: domain.CustomerInput{
			Name:  "Asha",
			Phone: "9876543210",
		},
	}
}

func stageOrder(t *testing.T, svc *OrderService, _ *MockLedger) string {
	t.Helper()
	res, err := svc.InitiatePayment(context.Background(), initiateFixture())
	require.NoError(t, err)
	return res.OrderID
}

func TestInitiatePayment_StagesPendingOrderAndPaymentRequest(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{InitResp: map[string]any{"redirectUrl": "https://pay.example.com/r"}}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})

	res, err := svc.InitiatePayment(context.Background(), initiateFixture())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.OrderID, "TXN"))
	assert.Equal(t, int64(49900), res.AmountPaisa)
	assert.Equal(t, "https://pay.example.com/r", res.RedirectURL)

	pending, err := ledger.ClaimPendingOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "user123", pending.UserID)
	assert.Equal(t, float64(499), pending.Total)

	pr, err := ledger.GetPaymentRequest(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusInitiated, pr.Status)
	assert.Equal(t, "https://pay.example.com/r", pr.InitiateResponse["redirectUrl"])
}

func TestInitiatePayment_MinorUnitFloor(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{InitResp: map[string]any{}}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})

	req := initiateFixture()
	req.Amount = 0.5

	res, err := svc.InitiatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.AmountPaisa, "amounts below one rupee clamp to the gateway floor")
}

func TestInitiatePayment_ValidationFailures(t *testing.T) {
	svc, _ := newTestService(NewMockLedger(), &MockGateway{}, &MockCarrier{})

	cases := []struct {
		name   string
		mutate func(*InitiatePaymentRequest)
	}{
		{"zero amount", func(r *InitiatePaymentRequest) { r.Amount = 0 }},
		{"missing user", func(r *InitiatePaymentRequest) { r.UserID = "" }},
		{"no items", func(r *InitiatePaymentRequest) { r.Items = nil }},
		{"bad redirect", func(r *InitiatePaymentRequest) { r.RedirectURL = "not-a-url" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := initiateFixture()
			tc.mutate(&req)
			_, err := svc.InitiatePayment(context.Background(), req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestInitiatePayment_GatewayFailureLogged(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{InitErr: errors.New("gateway down")}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})

	_, err := svc.InitiatePayment(context.Background(), initiateFixture())
	require.Error(t, err)
	require.Len(t, ledger.PaymentErrors, 1)
	assert.Equal(t, "initiate", ledger.PaymentErrors[0]["stage"])
}

func completedGateway() *MockGateway {
	return &MockGateway{
		InitResp: map[string]any{},
		Status: &phonepe.OrderStatus{
			State: phonepe.StateCompleted,
			Raw:   map[string]any{"state": "COMPLETED", "transactionId": "T1"},
		},
	}
}

func acceptedCarrier() *MockCarrier {
	return &MockCarrier{
		ManifestRes: &delhivery.ManifestResult{
			Waybill:     "WB123",
			TrackingURL: "https://track.delhivery.com/api/v1/packages/json/?waybill=WB123",
		},
	}
}

func TestVerifyPayment_CompletedMaterializesOrder(t *testing.T) {
	ledger := NewMockLedger()
	carrier := acceptedCarrier()
	svc, _ := newTestService(ledger, completedGateway(), carrier)
	orderID := stageOrder(t, svc, ledger)

	res, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Warning)
	require.NotNil(t, res.Order)

	order, err := ledger.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, "completed", order.PaymentStatus)
	require.NotNil(t, order.Shipment)
	assert.Equal(t, "WB123", order.Shipment.Waybill)
	assert.True(t, order.HasDiscounts)
	assert.Equal(t, float64(600), order.OriginalTotal)
	assert.InDelta(t, 101, order.TotalSavings, 0.001)

	pr, err := ledger.GetPaymentRequest(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, pr.Status)

	// The manifest carries normalized shipping data from the defaults since
	// no address was supplied.
	assert.Equal(t, "335513", carrier.LastManifest.Ship.PinCode)
	assert.Equal(t, "Asha", carrier.LastManifest.Ship.Name)
}

func TestVerifyPayment_ConcurrentVerificationsCreateOneOrder(t *testing.T) {
	ledger := NewMockLedger()
	svc, _ := newTestService(ledger, completedGateway(), acceptedCarrier())
	orderID := stageOrder(t, svc, ledger)

	const verifiers = 8
	var wg sync.WaitGroup
	results := make([]*VerifyPaymentResult, verifiers)
	for i := 0; i < verifiers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.VerifyPayment(context.Background(), orderID)
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ledger.OrderCount(), "racing verifications must materialize exactly one order")
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.Success)
	}
}

func TestVerifyPayment_RepeatedVerifyIsIdempotent(t *testing.T) {
	ledger := NewMockLedger()
	carrier := acceptedCarrier()
	svc, _ := newTestService(ledger, completedGateway(), carrier)
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)

	res, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Order, "second verify returns the already materialized order")

	assert.Equal(t, 1, ledger.OrderCount())
	assert.Equal(t, 1, carrier.ManifestCalls(), "the carrier is manifested once, not per verify")
}

func TestVerifyPayment_CarrierFailureKeepsOrderConfirmed(t *testing.T) {
	ledger := NewMockLedger()
	carrier := &MockCarrier{ManifestErr: errors.New("carrier timeout")}
	svc, _ := newTestService(ledger, completedGateway(), carrier)
	orderID := stageOrder(t, svc, ledger)

	res, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, res.Success, "a paid order is a success even when the manifest fails")

	order, err := ledger.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.True(t, order.DelhiveryRetryNeeded)
	assert.Contains(t, order.DelhiveryError, "carrier timeout")
	assert.Nil(t, order.Shipment)
}

func TestVerifyPayment_Pending(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{
		InitResp: map[string]any{},
		Status:   &phonepe.OrderStatus{State: phonepe.StatePending, Raw: map[string]any{"state": "PENDING"}},
	}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})
	orderID := stageOrder(t, svc, ledger)

	res, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.Retryable)

	pr, err := ledger.GetPaymentRequest(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, pr.Status)
	assert.Equal(t, 0, ledger.OrderCount(), "pending payments never materialize orders")
}

func TestVerifyPayment_FailedRecordsReason(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{
		InitResp: map[string]any{},
		Status: &phonepe.OrderStatus{
			State:        phonepe.StateFailed,
			ErrorCode:    "PAYMENT_DECLINED",
			ErrorContext: &phonepe.ErrorContext{Description: "Insufficient balance"},
			Raw:          map[string]any{"state": "FAILED"},
		},
	}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})
	orderID := stageOrder(t, svc, ledger)

	res, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
	assert.Equal(t, "Insufficient balance", res.FailureReason)

	pr, err := ledger.GetPaymentRequest(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, pr.Status)
	assert.Equal(t, "Insufficient balance", pr.FailureReason)
}

func TestVerifyPayment_UnknownOrderIsRetryable(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{StatusErr: phonepe.ErrNotFound}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})

	res, err := svc.VerifyPayment(context.Background(), "TXN-unknown")
	require.NoError(t, err)
	assert.True(t, res.Retryable)
	assert.Equal(t, "NOT_FOUND", res.State)
	assert.Empty(t, ledger.VerificationErrors)
}

func TestVerifyPayment_AuthFailurePropagates(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{StatusErr: phonepe.ErrAuth}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	assert.ErrorIs(t, err, ErrAuthentication)

	pr, prErr := ledger.GetPaymentRequest(context.Background(), orderID)
	require.NoError(t, prErr)
	assert.Equal(t, domain.PaymentStatusInitiated, pr.Status, "auth trouble writes nothing to the ledger")
}

func TestVerifyPayment_GatewayErrorLogged(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{StatusErr: errors.New("connection reset")}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})

	_, err := svc.VerifyPayment(context.Background(), "TXN1")
	require.Error(t, err)
	require.Len(t, ledger.VerificationErrors, 1)
	assert.Equal(t, "TXN1", ledger.VerificationErrors[0]["order_id"])
}

func TestRetryShipment_ManifestsFlaggedOrder(t *testing.T) {
	ledger := NewMockLedger()
	carrier := &MockCarrier{ManifestErr: errors.New("carrier timeout")}
	svc, _ := newTestService(ledger, completedGateway(), carrier)
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)

	// Carrier recovers before the retry.
	carrier.mu.Lock()
	carrier.ManifestErr = nil
	carrier.ManifestRes = &delhivery.ManifestResult{Waybill: "WB777"}
	carrier.mu.Unlock()

	res, err := svc.RetryShipment(context.Background(), orderID, "user123")
	require.NoError(t, err)
	assert.Equal(t, "WB777", res.Shipment.Waybill)

	order, err := ledger.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.False(t, order.DelhiveryRetryNeeded)
	assert.Empty(t, order.DelhiveryError)
}

func TestRetryShipment_ExistingWaybillNotRemanifested(t *testing.T) {
	ledger := NewMockLedger()
	carrier := acceptedCarrier()
	svc, _ := newTestService(ledger, completedGateway(), carrier)
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	require.Equal(t, 1, carrier.ManifestCalls())

	res, err := svc.RetryShipment(context.Background(), orderID, "user123")
	require.NoError(t, err)
	assert.Equal(t, "WB123", res.Shipment.Waybill)
	assert.Equal(t, 1, carrier.ManifestCalls(), "an existing waybill is never replaced by a retry")
}

func TestRetryShipment_OwnershipEnforced(t *testing.T) {
	ledger := NewMockLedger()
	svc, _ := newTestService(ledger, completedGateway(), acceptedCarrier())
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)

	_, err = svc.RetryShipment(context.Background(), orderID, "someone-else")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetOrderTracking_DegradesOnCarrierFailure(t *testing.T) {
	ledger := NewMockLedger()
	carrier := acceptedCarrier()
	svc, _ := newTestService(ledger, completedGateway(), carrier)
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)

	carrier.mu.Lock()
	carrier.TrackErr = errors.New("carrier unavailable")
	carrier.mu.Unlock()

	res, err := svc.GetOrderTracking(context.Background(), orderID, "user123")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Nil(t, res.Tracking)
	assert.Contains(t, res.TrackingError, "carrier unavailable")
}

func TestGetOrderTracking_ForbiddenForOtherUser(t *testing.T) {
	ledger := NewMockLedger()
	svc, _ := newTestService(ledger, completedGateway(), acceptedCarrier())
	orderID := stageOrder(t, svc, ledger)

	_, err := svc.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)

	_, err = svc.GetOrderTracking(context.Background(), orderID, "intruder")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTrackShipment_CachesByWaybill(t *testing.T) {
	carrier := &MockCarrier{TrackInfo: &delhivery.TrackingInfo{Waybill: "WB123", Status: "Dispatched"}}
	svc, mc := newTestService(NewMockLedger(), &MockGateway{}, carrier)

	info, err := svc.TrackShipment(context.Background(), "WB123", "")
	require.NoError(t, err)
	assert.Equal(t, "Dispatched", info.Status)

	// Cache write happens off the request path.
	require.Eventually(t, func() bool {
		_, err := mc.GetTracking(context.Background(), "WB123")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	_, err = svc.TrackShipment(context.Background(), "WB123", "")
	require.NoError(t, err)
	assert.Equal(t, 1, carrier.TrackCalls())
}

func TestCheckServiceability_ValidatesAndCaches(t *testing.T) {
	carrier := &MockCarrier{Sv: &delhivery.Serviceability{PostalCode: "411001", Serviceable: true}}
	svc, mc := newTestService(NewMockLedger(), &MockGateway{}, carrier)

	_, err := svc.CheckServiceability(context.Background(), "41100")
	assert.ErrorIs(t, err, ErrValidation)

	sv, err := svc.CheckServiceability(context.Background(), "411001")
	require.NoError(t, err)
	assert.True(t, sv.Serviceable)

	require.Eventually(t, func() bool {
		_, err := mc.GetServiceability(context.Background(), "411001")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	_, err = svc.CheckServiceability(context.Background(), "411001")
	require.NoError(t, err)
	assert.Equal(t, 1, carrier.SvCalls())
}

func TestGenerateTransactionID_Logged(t *testing.T) {
	ledger := NewMockLedger()
	svc, _ := newTestService(ledger, &MockGateway{}, &MockCarrier{})

	id, err := svc.GenerateTransactionID(context.Background(), "user123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "TXN"))
	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, id, ledger.Transactions[0]["transaction_id"])

	_, err = svc.GenerateTransactionID(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHealth_ReportsComponents(t *testing.T) {
	ledger := NewMockLedger()
	gateway := &MockGateway{}
	svc, _ := newTestService(ledger, gateway, &MockCarrier{})

	components := svc.Health(context.Background())
	assert.Equal(t, "ok", components["mongodb"])
	assert.Equal(t, "ok", components["phonepe"])

	ledger.PingErr = errors.New("no reachable servers")
	assert.Equal(t, "unreachable", svc.Health(context.Background())["mongodb"])
}

func TestHealth_TokenFetchFailureFlagsGateway(t *testing.T) {
	gateway := &MockGateway{TokenErr: phonepe.ErrAuth}
	svc, _ := newTestService(NewMockLedger(), gateway, &MockCarrier{})

	components := svc.Health(context.Background())
	assert.Equal(t, "unreachable", components["phonepe"])
	assert.Equal(t, "ok", components["mongodb"])
}
