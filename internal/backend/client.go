package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/config"
)

// ErrNotConfigured is returned when no backend base URL was set
var ErrNotConfigured = errors.New("commerce backend is not configured")

// ErrUnavailable is returned while the circuit breaker is open
var ErrUnavailable = errors.New("commerce backend is unavailable")

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend API error: status %d, body: %s", e.StatusCode, e.Body)
}

// Rejected reports whether the backend refused the order itself rather than failing
func (e *StatusError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[OrderResponse]
	logger     *zap.Logger
}

// NewClient creates a REST client for the commerce backend
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[OrderResponse](gobreaker.Settings{
			Name:        "commerce-backend",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// a rejected order says nothing about backend health
			IsSuccessful: func(err error) bool {
				var statusErr *StatusError
				return err == nil || (errors.As(err, &statusErr) && statusErr.Rejected())
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

// OrderRequest is the order payload posted to the backend
type OrderRequest struct {
	Reference     string        `json:"reference"`
	SessionID     string        `json:"session_id"`
	Items         []OrderLine   `json:"items"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	Totals        OrderTotals   `json:"totals"`
	Customer      OrderCustomer `json:"customer"`
	Shipping      OrderShipping `json:"shipping"`
	PaymentMethod string        `json:"payment_method"`
}

type OrderLine struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	VendorID   string          `json:"vendor_id,omitempty"`
	SKU        string          `json:"sku,omitempty"`
	Attributes map[string]any  `json:"attributes,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

type OrderTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type OrderCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type OrderShipping struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderResponse is the backend's acknowledgement of a created order
type OrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// CreateOrder posts an order to the backend through the circuit breaker
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (OrderResponse, error) {
	if c.baseURL == "" {
		return OrderResponse{}, ErrNotConfigured
	}

	resp, err := c.breaker.Execute(func() (OrderResponse, error) {
		return c.post(ctx, "/orders", order)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return OrderResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return OrderResponse{}, err
	}

	c.logger.Info("Created backend order",
		zap.String("reference", order.Reference),
		zap.String("order_id", resp.OrderID),
	)
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (OrderResponse, error) {
	var out OrderResponse

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Backend rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return out, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return out, nil
}
