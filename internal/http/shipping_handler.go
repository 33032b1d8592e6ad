package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type ShippingHandler struct {
	svc     CheckoutService
	timeout time.Duration
}

func NewShippingHandler(svc CheckoutService, timeout time.Duration) *ShippingHandler {
	return &ShippingHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type CreateShipmentRequestDTO struct {
	OrderID string `json:"orderId"`
}

func (h *ShippingHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateShipmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "orderId is required")
		return
	}

	result, err := h.svc.CreateShipment(ctx, req.OrderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *ShippingHandler) RetryShipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	result, err := h.svc.RetryShipment(ctx, orderID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *ShippingHandler) TrackShipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	waybill := r.URL.Query().Get("waybill")
	refID := r.URL.Query().Get("orderId")
	if waybill == "" && refID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "waybill or orderId query parameter is required")
		return
	}

	info, err := h.svc.TrackShipment(ctx, waybill, refID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (h *ShippingHandler) CheckServiceability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	pincode := chi.URLParam(r, "pincode")

	sv, err := h.svc.CheckServiceability(ctx, pincode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sv)
}

func (h *ShippingHandler) GetOrderTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	result, err := h.svc.GetOrderTracking(ctx, orderID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
