package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool_trader/internal/models"
	"pool_trader/internal/modules/config"
)

func testBrokerClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.Broker.BaseURL = baseURL
	cfg.Broker.APIKey = "key-1"
	cfg.Broker.APISecret = "secret-1"
	return NewClient(cfg)
}

func TestSubmitOrderSignsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-API-KEY"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"idempotency_key":"600519-BUY-1756393200-run-1"`)

		ts := r.Header.Get("X-TIMESTAMP")
		mac := hmac.New(sha256.New, []byte("secret-1"))
		mac.Write([]byte(ts + http.MethodPost + "/api/v1/orders" + string(body)))
		assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), r.Header.Get("X-SIGN"))

		_, _ = w.Write([]byte(`{"code":0,"data":{"order_ref":"ref-77","status":"submitted"}}`))
	}))
	defer server.Close()

	res, err := testBrokerClient(server.URL).SubmitOrder(
		context.Background(), "600519", models.SideBuy, 1000, "600519-BUY-1756393200-run-1")
	require.NoError(t, err)
	assert.Equal(t, "ref-77", res.OrderRef)
	assert.Equal(t, "submitted", res.Status)
}

func TestSubmitOrderRejectionKeepsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":4001,"msg":"insufficient buying power"}`))
	}))
	defer server.Close()

	_, err := testBrokerClient(server.URL).SubmitOrder(
		context.Background(), "600519", models.SideBuy, 1000, "k-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGatewayRejected))
	assert.Contains(t, err.Error(), "insufficient buying power")

	httpErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance window", http.StatusServiceUnavailable)
	}))
	defer httpErr.Close()

	_, err = testBrokerClient(httpErr.URL).SubmitOrder(
		context.Background(), "600519", models.SideBuy, 1000, "k-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGatewayRejected))
	assert.Contains(t, err.Error(), "maintenance window")
}

func TestSubmitOrderClassifiesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"code":0,"data":{"order_ref":"ref-1","status":"submitted"}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := testBrokerClient(server.URL).SubmitOrder(ctx, "600519", models.SideBuy, 1000, "k-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGatewayTimeout))
}

func TestSubmitOrderRejectsNonPositiveQty(t *testing.T) {
	_, err := testBrokerClient("http://unused").SubmitOrder(
		context.Background(), "600519", models.SideBuy, 0, "k-1")
	assert.Error(t, err)
}

func TestGetOrderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/ref-77", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":0,"data":{"status":"filled"}}`))
	}))
	defer server.Close()

	status, err := testBrokerClient(server.URL).GetOrderStatus(context.Background(), "ref-77")
	require.NoError(t, err)
	assert.Equal(t, "filled", status)
}
