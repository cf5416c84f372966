package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PaymentFailedError is recoverable: the booking pipeline returns to the
// pre-payment step and the order can be retried without re-searching.
type PaymentFailedError struct {
	Reason string
}

func (e PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed: %s", e.Reason)
}

func (e PaymentFailedError) ErrorCode() int {
	return http.StatusPaymentRequired
}

type Order struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

type Receipt struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client wraps the payment gateway's order-creation and verification
// endpoints. Any response lacking the identifying fields is a failure.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (c *Client) CreateOrder(ctx context.Context, amount float64, currency string) (Order, error) {
	var resp struct {
		OrderID  string  `json:"orderId"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Status   string  `json:"status"`
	}

	err := c.post(ctx, "/orders", map[string]interface{}{
		"amount":   amount,
		"currency": currency,
	}, &resp)
	if err != nil {
		return Order{}, err
	}

	if resp.OrderID == "" || resp.Status == "" {
		return Order{}, PaymentFailedError{Reason: "order response is missing order id or status"}
	}

	return Order{OrderID: resp.OrderID, Amount: amount, Currency: currency, Status: resp.Status}, nil
}

func (c *Client) VerifyPayment(ctx context.Context, orderID, paymentID string) (Receipt, error) {
	var resp struct {
		OrderID   string `json:"orderId"`
		PaymentID string `json:"paymentId"`
		Status    string `json:"status"`
	}

	err := c.post(ctx, "/payments/verify", map[string]string{
		"orderId":   orderID,
		"paymentId": paymentID,
	}, &resp)
	if err != nil {
		return Receipt{}, err
	}

	if resp.PaymentID == "" || resp.Status == "" {
		return Receipt{}, PaymentFailedError{Reason: "verification response is missing payment id or status"}
	}

	if resp.Status != "captured" && resp.Status != "paid" {
		return Receipt{}, PaymentFailedError{Reason: "payment status is " + resp.Status}
	}

	return Receipt{OrderID: resp.OrderID, PaymentID: resp.PaymentID, Status: resp.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PaymentFailedError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return PaymentFailedError{Reason: http.StatusText(resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return PaymentFailedError{Reason: "unreadable response body"}
	}

	return nil
}
