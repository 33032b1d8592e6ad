// Package delhivery implements the Delhivery logistics client: manifest
// creation, waybill tracking and pincode serviceability.
package delhivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/config"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/shipping"
)

var (
	// ErrManifestRejected means the carrier processed the request but did not
	// accept the shipment.
	ErrManifestRejected = errors.New("manifest rejected by carrier")
	// ErrNotFound means the waybill or pincode is unknown to the carrier.
	ErrNotFound = errors.New("not found")
)

type apiResponse struct {
	status int
	body   []byte
}

type Client struct {
	cfg             config.DelhiveryConfig
	http            *http.Client
	breaker         *gobreaker.CircuitBreaker[*apiResponse]
	manifestTimeout time.Duration
}

func NewClient(cfg config.DelhiveryConfig, timeout, manifestTimeout time.Duration) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
			Name: "delhivery",
		}),
		manifestTimeout: manifestTimeout,
	}
}

// do runs the request through the circuit breaker. Transport failures and
// 5xx responses count against the breaker; 4xx responses pass through for
// the caller to interpret.
func (c *Client) do(client *http.Client, req *http.Request) (*apiResponse, error) {
	return c.breaker.Execute(func() (*apiResponse, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read carrier response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("delhivery returned %d", resp.StatusCode)
		}
		return &apiResponse{status: resp.StatusCode, body: body}, nil
	})
}

// ManifestRequest carries everything needed to register one shipment.
type ManifestRequest struct {
	OrderID      string
	Ship         shipping.Record
	Items        []domain.LineItem
	PaymentMode  string
	CODAmount    float64
	TotalAmount  float64
	OrderDate    time.Time
	UsedDefaults bool
}

// ManifestResult is the accepted-manifest outcome.
type ManifestResult struct {
	Waybill      string
	TrackingURL  string
	UsedDefaults bool
	Raw          map[string]any
}

// CreateShipment registers a shipment with the carrier. The API takes a
// form-encoded body whose data field is a JSON document.
func (c *Client) CreateShipment(ctx context.Context, r ManifestRequest) (*ManifestResult, error) {
	ship := r.Ship
	address := ship.AddressLine1
	if ship.AddressLine2 != "" {
		address += ", " + ship.AddressLine2
	}

	dims := shipping.PackageDimensions(len(r.Items))
	paymentMode := r.PaymentMode
	if paymentMode == "" {
		paymentMode = "Prepaid"
	}

	shipment := map[string]any{
		"name":           ship.Name,
		"add":            address,
		"pin":            ship.PinCode,
		"city":           ship.City,
		"state":          ship.State,
		"country":        ship.Country,
		"phone":          ship.Phone,
		"order":          r.OrderID,
		"payment_mode":   paymentMode,
		"return_pin":     c.cfg.Pickup.PinCode,
		"return_city":    c.cfg.Pickup.City,
		"return_phone":   c.cfg.Pickup.Phone,
		"return_add":     c.cfg.Pickup.Address,
		"return_state":   c.cfg.PickupState,
		"return_country": c.cfg.Pickup.Country,
		"products_desc":  shipping.ProductsDescription(r.Items),
		"hsn_code":       c.cfg.HSNCode,
		"cod_amount":     r.CODAmount,
		"order_date":     r.OrderDate.Format(time.RFC3339),
		"total_amount":   r.TotalAmount,
		"seller_add":     c.cfg.Seller.Address,
		"seller_name":    c.cfg.Seller.Name,
		"seller_inv":     c.cfg.Seller.InvoicePrefix + r.OrderID,
		"quantity":       shipping.TotalQuantity(r.Items),
		"waybill":        "",
		"shipment_width": dims.Breadth,
		"shipment_height": dims.Height,
		"weight":          shipping.PackageWeight(len(r.Items)),
		"seller_gst_tin":  c.cfg.Seller.GSTTin,
		"shipping_mode":   "Surface",
		"address_type":    "home",
		"email":           ship.Email,
	}

	data, err := json.Marshal(map[string]any{
		"shipments":       []any{shipment},
		"pickup_location": map[string]any{"name": c.cfg.Pickup.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	body := "format=json&data=" + url.QueryEscape(string(data))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/cmu/create.json", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Token "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	// Manifest creation is the slowest carrier call and gets its own budget.
	client := *c.http
	client.Timeout = c.manifestTimeout

	resp, err := c.do(&client, req)
	if err != nil {
		return nil, fmt.Errorf("manifest call failed: %w", err)
	}

	raw, err := decodeBody(resp.body)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return nil, fmt.Errorf("manifest returned %d: %s", resp.status, summarize(raw))
	}
	if !manifestAccepted(raw) {
		return nil, fmt.Errorf("%w: %s", ErrManifestRejected, summarize(raw))
	}

	waybill := extractWaybill(raw)
	result := &ManifestResult{
		Waybill:      waybill,
		UsedDefaults: r.UsedDefaults,
		Raw:          raw,
	}
	if waybill != "" {
		result.TrackingURL = fmt.Sprintf("%s/api/v1/packages/json/?waybill=%s",
			c.cfg.TrackingURL, url.QueryEscape(waybill))
	}
	return result, nil
}

// manifestAccepted decides whether the carrier took the shipment. The create
// API reports success in several shapes depending on the account tier, so any
// positive signal counts: an explicit success flag, a "Success" remark, a
// returned package entry, or the plain absence of an error key.
func manifestAccepted(raw map[string]any) bool {
	if success, ok := raw["success"].(bool); ok && success {
		return true
	}
	if rmk, ok := raw["rmk"].(string); ok && rmk == "Success" {
		return true
	}
	if packages, ok := raw["packages"].([]any); ok && len(packages) > 0 {
		return true
	}
	_, hasError := raw["error"]
	return !hasError
}

// extractWaybill pulls the waybill from packages[0] or the top level.
func extractWaybill(raw map[string]any) string {
	if packages, ok := raw["packages"].([]any); ok && len(packages) > 0 {
		if pkg, ok := packages[0].(map[string]any); ok {
			if wb, ok := pkg["waybill"].(string); ok && wb != "" {
				return wb
			}
		}
	}
	wb, _ := raw["waybill"].(string)
	return wb
}

func summarize(raw map[string]any) string {
	if rmk, ok := raw["rmk"].(string); ok && rmk != "" {
		return rmk
	}
	if e, ok := raw["error"].(string); ok && e != "" {
		return e
	}
	b, _ := json.Marshal(raw)
	if len(b) > 200 {
		b = b[:200]
	}
	return string(b)
}

func decodeBody(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode carrier response: %w", err)
	}
	return raw, nil
}
