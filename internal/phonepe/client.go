// Package phonepe implements the PhonePe payment gateway client: OAuth
// client-credentials exchange, payment initiation and order-status queries.
package phonepe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/config"
)

// Gateway order states returned by the order-status API.
const (
	StateCompleted = "COMPLETED"
	StatePending   = "PENDING"
	StateFailed    = "FAILED"
)

// paymentExpirySeconds is how long an initiated checkout stays payable.
const paymentExpirySeconds = 1200

type InitiateRequest struct {
	MerchantOrderID string
	AmountPaisa     int64
	UserID          string
	UserPhone       string
	RedirectURL     string
}

type ErrorContext struct {
	Description string `json:"description"`
}

// OrderStatus is the decoded order-status response. Raw carries the full
// payload for ledger persistence.
type OrderStatus struct {
	State        string         `json:"state"`
	ErrorCode    string         `json:"errorCode"`
	ErrorContext *ErrorContext  `json:"errorContext"`
	Raw          map[string]any `json:"-"`
}

// FailureReason extracts a human-readable reason from a FAILED response,
// preferring the error-context description over the bare code.
func (s *OrderStatus) FailureReason() string {
	if s.ErrorContext != nil && s.ErrorContext.Description != "" {
		return s.ErrorContext.Description
	}
	if s.ErrorCode != "" {
		return s.ErrorCode
	}
	return "Payment failed"
}

type apiResponse struct {
	status int
	body   []byte
}

type Client struct {
	cfg     config.PhonePeConfig
	http    *http.Client
	tokens  *tokenProvider
	breaker *gobreaker.CircuitBreaker[*apiResponse]
}

func NewClient(cfg config.PhonePeConfig, timeout time.Duration) *Client {
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	c.tokens = newTokenProvider(cfg.TokenTTL, c.fetchToken)
	c.breaker = gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name: "phonepe",
	})
	return c
}

// AccessToken returns a cached or freshly fetched bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":      {c.cfg.ClientID},
		"client_version": {c.cfg.ClientVersion},
		"client_secret":  {c.cfg.ClientSecret},
		"grant_type":     {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.AuthURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("auth call failed: %w", err)
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("%w: auth returned %d", ErrAuth, resp.status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuth)
	}
	return body.AccessToken, nil
}

// InitiatePayment starts a PG_CHECKOUT flow for the merchant order and
// returns the raw gateway response for ledger persistence.
func (c *Client) InitiatePayment(ctx context.Context, r InitiateRequest) (map[string]any, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	phone := r.UserPhone
	if phone == "" {
		phone = "9999999999"
	}
	payload := map[string]any{
		"merchantOrderId": r.MerchantOrderID,
		"amount":          r.AmountPaisa,
		"expireAfter":     paymentExpirySeconds,
		"metaInfo": map[string]any{
			"udf1": r.UserID,
			"udf2": phone,
			"udf3": "Production Payment",
			"udf4": "Keiway Wellness",
			"udf5": "V2",
		},
		"paymentFlow": map[string]any{
			"type":    "PG_CHECKOUT",
			"message": "Complete payment to confirm order",
			"merchantUrls": map[string]any{
				"redirectUrl": r.RedirectURL,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/checkout/v2/pay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("payment call failed: %w", err)
	}

	switch resp.status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		c.tokens.Invalidate()
		return nil, ErrAuth
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		return nil, fmt.Errorf("payment initiation returned %d", resp.status)
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return raw, nil
}

// GetOrderStatus queries the order-status API with error context enabled.
func (c *Client) GetOrderStatus(ctx context.Context, merchantOrderID string) (*OrderStatus, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	statusURL := fmt.Sprintf("%s/checkout/v2/order/%s/status?details=true&errorContext=true",
		c.cfg.BaseURL, url.PathEscape(merchantOrderID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("status call failed: %w", err)
	}

	switch resp.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized:
		c.tokens.Invalidate()
		return nil, ErrAuth
	default:
		return nil, fmt.Errorf("order status returned %d", resp.status)
	}

	var status OrderStatus
	if err := json.Unmarshal(resp.body, &status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	if err := json.Unmarshal(resp.body, &status.Raw); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &status, nil
}

// do runs the request through the circuit breaker. Transport failures and
// 5xx responses count against the breaker; 4xx responses are business
// outcomes and pass through.
func (c *Client) do(req *http.Request) (*apiResponse, error) {
	return c.breaker.Execute(func() (*apiResponse, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("phonepe returned %d", resp.StatusCode)
		}
		return &apiResponse{status: resp.StatusCode, body: body}, nil
	})
}
