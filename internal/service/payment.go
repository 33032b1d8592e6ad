package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/phonepe"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/repository"
)

// minAmountPaisa is the gateway's floor for a payment in minor units.
const minAmountPaisa = 100

type InitiatePaymentRequest struct {
	OrderID         string               `json:"orderId"`
	Amount          float64              `json:"amount" validate:"required,gt=0"`
	UserID          string               `json:"userId" validate:"required"`
	RedirectURL     string               `json:"redirectUrl" validate:"required,url"`
	Items           []domain.LineItem    `json:"items" validate:"required,min=1,dive"`
	Total           float64              `json:"total"`
	ShippingAddress domain.AddressInput  `json:"shippingAddress"`
	CustomerDetails domain.CustomerInput `json:"customerDetails"`
}

type InitiatePaymentResult struct {
	OrderID     string         `json:"orderId"`
	AmountPaisa int64          `json:"amountInPaisa"`
	RedirectURL string         `json:"redirectUrl,omitempty"`
	Gateway     map[string]any `json:"gatewayResponse"`
}

// InitiatePayment stages a pending order, records the payment request and
// starts a gateway checkout. The pending order holds everything needed to
// materialize the confirmed order once payment succeeds.
func (s *OrderService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = s.txn.Generate()
	}

	amountPaisa := int64(math.Round(req.Amount * 100))
	if amountPaisa < minAmountPaisa {
		amountPaisa = minAmountPaisa
	}

	total := req.Total
	if total == 0 {
		total = req.Amount
	}

	pending := &domain.PendingOrder{
		ID:              orderID,
		UserID:          req.UserID,
		Items:           req.Items,
		Total:           total,
		ShippingAddress: req.ShippingAddress,
		CustomerDetails: req.CustomerDetails,
		CreatedAt:       time.Now(),
	}
	if err := s.ledger.CreatePendingOrder(ctx, pending); err != nil {
		return nil, fmt.Errorf("stage pending order: %w", err)
	}

	pr := &domain.PaymentRequest{
		OrderID:     orderID,
		UserID:      req.UserID,
		Amount:      req.Amount,
		AmountPaisa: amountPaisa,
		Status:      domain.PaymentStatusInitiated,
	}
	if err := s.ledger.CreatePaymentRequest(ctx, pr); err != nil {
		return nil, fmt.Errorf("record payment request: %w", err)
	}

	resp, err := s.gateway.InitiatePayment(ctx, phonepe.InitiateRequest{
		MerchantOrderID: orderID,
		AmountPaisa:     amountPaisa,
		UserID:          req.UserID,
		UserPhone:       req.CustomerDetails.Phone,
		RedirectURL:     req.RedirectURL,
	})
	if err != nil {
		s.ledger.LogPaymentError(ctx, map[string]any{
			"order_id": orderID,
			"user_id":  req.UserID,
			"stage":    "initiate",
			"error":    err.Error(),
		})
		if errors.Is(err, phonepe.ErrAuth) {
			return nil, ErrAuthentication
		}
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	if err := s.ledger.SetPaymentInitiateResponse(ctx, orderID, resp); err != nil {
		log.Printf("Failed to store initiate response for %s: %v", orderID, err)
	}

	result := &InitiatePaymentResult{
		OrderID:     orderID,
		AmountPaisa: amountPaisa,
		Gateway:     resp,
	}
	if redirect, ok := resp["redirectUrl"].(string); ok {
		result.RedirectURL = redirect
	}
	return result, nil
}

type VerifyPaymentResult struct {
	OrderID       string        `json:"orderId"`
	State         string        `json:"state"`
	Success       bool          `json:"success"`
	Retryable     bool          `json:"retryable"`
	FailureReason string        `json:"failureReason,omitempty"`
	Order         *domain.Order `json:"order,omitempty"`
	Warning       string        `json:"warning,omitempty"`
}

// VerifyPayment polls the gateway for the order's payment state and drives
// the ledger accordingly. A COMPLETED state triggers order materialization;
// PENDING and an unknown order are retryable outcomes; FAILED is terminal.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID string) (*VerifyPaymentResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id required", ErrValidation)
	}

	status, err := s.gateway.GetOrderStatus(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, phonepe.ErrAuth):
			// Token trouble says nothing about the payment itself. Leave the
			// ledger untouched so a later poll can settle it.
			return nil, ErrAuthentication
		case errors.Is(err, phonepe.ErrNotFound):
			return &VerifyPaymentResult{
				OrderID:   orderID,
				State:     "NOT_FOUND",
				Retryable: true,
			}, nil
		default:
			s.ledger.LogVerificationError(ctx, map[string]any{
				"order_id": orderID,
				"error":    err.Error(),
			})
			return nil, fmt.Errorf("verify payment: %w", err)
		}
	}

	switch status.State {
	case phonepe.StateCompleted:
		if err := s.ledger.MarkPaymentCompleted(ctx, orderID, status.Raw); err != nil {
			return nil, fmt.Errorf("mark payment completed: %w", err)
		}
		result := &VerifyPaymentResult{
			OrderID: orderID,
			State:   status.State,
			Success: true,
		}
		order, err := s.materializeOrder(ctx, orderID, status.Raw)
		if err != nil {
			// Payment is settled; the order can still be recovered from the
			// ledger, so the verification itself succeeds with a warning.
			log.Printf("Order materialization failed for %s: %v", orderID, err)
			result.Warning = "payment confirmed but order creation incomplete"
			return result, nil
		}
		result.Order = order
		return result, nil

	case phonepe.StatePending:
		if err := s.ledger.MarkPaymentPending(ctx, orderID, status.Raw); err != nil {
			log.Printf("Failed to mark payment pending for %s: %v", orderID, err)
		}
		return &VerifyPaymentResult{
			OrderID:   orderID,
			State:     status.State,
			Retryable: true,
		}, nil

	case phonepe.StateFailed:
		reason := status.FailureReason()
		if err := s.ledger.MarkPaymentFailed(ctx, orderID, reason, status.Raw); err != nil {
			log.Printf("Failed to mark payment failed for %s: %v", orderID, err)
		}
		return &VerifyPaymentResult{
			OrderID:       orderID,
			State:         status.State,
			FailureReason: reason,
		}, nil

	default:
		// Unknown states are treated like pending: no terminal ledger write.
		return &VerifyPaymentResult{
			OrderID:   orderID,
			State:     status.State,
			Retryable: true,
		}, nil
	}
}

// materializeOrder turns the staged pending order into a confirmed order
// exactly once. The pending document acts as the claim: whoever deletes it
// writes the order, everyone else finds the order already present.
func (s *OrderService) materializeOrder(ctx context.Context, orderID string, paymentData map[string]any) (*domain.Order, error) {
	pending, err := s.ledger.ClaimPendingOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPendingOrderNotFound) {
			order, getErr := s.ledger.GetOrder(ctx, orderID)
			if getErr == nil {
				return order, nil
			}
			return nil, fmt.Errorf("no pending order and no confirmed order for %s", orderID)
		}
		return nil, fmt.Errorf("claim pending order: %w", err)
	}

	discounts := domain.ComputeDiscounts(pending.Items)
	now := time.Now()

	order := &domain.Order{
		ID:              orderID,
		UserID:          pending.UserID,
		Items:           pending.Items,
		Total:           pending.Total,
		OriginalTotal:   discounts.OriginalTotal,
		TotalSavings:    discounts.TotalSavings,
		DiscountDetails: discounts.Lines,
		HasDiscounts:    discounts.HasDiscounts(),
		ShippingAddress: pending.ShippingAddress,
		CustomerDetails: pending.CustomerDetails,
		Status:          domain.OrderStatusConfirmed,
		PaymentStatus:   "completed",
		PaymentID:       orderID,
		PaymentData:     paymentData,

		PaymentCompletedAt: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// The order is written before the carrier call: a manifest failure must
	// never lose a paid order.
	if err := s.ledger.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.manifestShipment(ctx, order)
	return order, nil
}
