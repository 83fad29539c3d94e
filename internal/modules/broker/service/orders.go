package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

// OrderResult — what the gateway reports back on submission.
type OrderResult struct {
	OrderRef string
	Status   string // "submitted", "filled"
}

// SubmitOrder places one order. The idempotency key travels with the
// request so a resubmission after a transient failure cannot double-fill.
// Rejections and timeouts come back wrapped in ErrGatewayRejected /
// ErrGatewayTimeout with the gateway's own words preserved.
func (c *Client) SubmitOrder(ctx context.Context, symbol string, side models.Side, qty float64, idempotencyKey string) (OrderResult, error) {
	if qty <= 0 {
		return OrderResult{}, errors.Errorf("SubmitOrder: qty <= 0")
	}

	body := map[string]any{
		"symbol":          symbol,
		"side":            strings.ToLower(string(side)),
		"qty":             qty,
		"idempotency_key": idempotencyKey,
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return OrderResult{}, fmt.Errorf("SubmitOrder marshal: %w", err)
	}

	const requestPath = "/api/v1/orders"

	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	sign := c.sign(ts, http.MethodPost, requestPath, string(payload))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+requestPath,
		bytes.NewReader(payload),
	)
	if err != nil {
		return OrderResult{}, fmt.Errorf("SubmitOrder new request: %w", err)
	}
	c.setAuthHeaders(req, ts, sign)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return OrderResult{}, errors.Wrapf(models.ErrGatewayTimeout, "%v", err)
		}
		return OrderResult{}, fmt.Errorf("SubmitOrder do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return OrderResult{}, errors.Wrapf(models.ErrGatewayRejected,
			"http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			OrderRef string `json:"order_ref"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return OrderResult{}, fmt.Errorf("SubmitOrder decode: %w; body=%s", err, string(data))
	}
	if r.Code != 0 {
		return OrderResult{}, errors.Wrapf(models.ErrGatewayRejected,
			"code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}
	if r.Data.OrderRef == "" {
		return OrderResult{}, errors.Wrapf(models.ErrGatewayRejected,
			"empty order_ref RAW=%s", string(data))
	}

	return OrderResult{OrderRef: r.Data.OrderRef, Status: r.Data.Status}, nil
}

// GetOrderStatus polls one order's state: "submitted", "filled",
// "failed" or "cancelled".
func (c *Client) GetOrderStatus(ctx context.Context, orderRef string) (string, error) {
	requestPath := "/api/v1/orders/" + url.PathEscape(orderRef)

	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	sign := c.sign(ts, http.MethodGet, requestPath, "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return "", fmt.Errorf("GetOrderStatus new request: %w", err)
	}
	c.setAuthHeaders(req, ts, sign)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", errors.Wrapf(models.ErrGatewayTimeout, "%v", err)
		}
		return "", fmt.Errorf("GetOrderStatus do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", errors.Wrapf(models.ErrGatewayRejected, "http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code int `json:"code"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("GetOrderStatus decode: %w; body=%s", err, string(data))
	}
	return r.Data.Status, nil
}

// GetPositions lists the venue's open positions for reconciliation.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	const requestPath = "/api/v1/positions"

	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	sign := c.sign(ts, http.MethodGet, requestPath, "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return nil, fmt.Errorf("GetPositions new request: %w", err)
	}
	c.setAuthHeaders(req, ts, sign)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetPositions do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Wrapf(models.ErrGatewayRejected, "http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code int `json:"code"`
		Data []struct {
			Symbol   string  `json:"symbol"`
			Side     string  `json:"side"`
			Qty      float64 `json:"qty"`
			AvgEntry float64 `json:"avg_entry"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("GetPositions decode: %w; body=%s", err, string(data))
	}

	out := make([]models.Position, 0, len(r.Data))
	for _, p := range r.Data {
		out = append(out, models.Position{
			Symbol:   p.Symbol,
			Side:     models.Side(strings.ToUpper(p.Side)),
			Qty:      p.Qty,
			AvgEntry: p.AvgEntry,
			Updated:  time.Now(),
		})
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
