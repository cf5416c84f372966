package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: server.URL, APIKey: "pay-key", Timeout: 2 * time.Second})

	return client, server
}

func TestClient_CreateOrder(t *testing.T) {
	orderRequest := func(response map[string]interface{}, wantErr bool) func(t *testing.T) {
		return func(t *testing.T) {
			client, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(response)
			})
			defer server.Close()

			got, err := client.CreateOrder(context.Background(), 6200, "INR")

			if wantErr {
				var payErr PaymentFailedError
				assert.True(t, errors.As(err, &payErr))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "order-1", got.OrderID)
			assert.Equal(t, 6200.0, got.Amount)
		}
	}

	t.Run("order_created", orderRequest(map[string]interface{}{
		"orderId": "order-1", "status": "created",
	}, false))
	t.Run("missing_order_id", orderRequest(map[string]interface{}{
		"status": "created",
	}, true))
	t.Run("missing_status", orderRequest(map[string]interface{}{
		"orderId": "order-1",
	}, true))
}

func TestClient_VerifyPayment(t *testing.T) {
	verifyRequest := func(response map[string]interface{}, wantErr bool) func(t *testing.T) {
		return func(t *testing.T) {
			client, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(response)
			})
			defer server.Close()

			got, err := client.VerifyPayment(context.Background(), "order-1", "pay-1")

			if wantErr {
				var payErr PaymentFailedError
				assert.True(t, errors.As(err, &payErr))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "pay-1", got.PaymentID)
		}
	}

	t.Run("captured", verifyRequest(map[string]interface{}{
		"orderId": "order-1", "paymentId": "pay-1", "status": "captured",
	}, false))
	t.Run("failed_status", verifyRequest(map[string]interface{}{
		"orderId": "order-1", "paymentId": "pay-1", "status": "failed",
	}, true))
	t.Run("shape_without_ids", verifyRequest(map[string]interface{}{
		"something": "else",
	}, true))
}

func TestClient_GatewayDown(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.CreateOrder(context.Background(), 100, "INR")

	var payErr PaymentFailedError
	assert.True(t, errors.As(err, &payErr))
}
