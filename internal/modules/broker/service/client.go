package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"pool_trader/internal/modules/config"
)

// Client submits real orders through the brokerage gateway. Requests are
// signed; responses carry a gateway status code plus a per-order verdict.
type Client struct {
	baseURL string
	http    *http.Client

	apiKey    string
	apiSecret string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   cfg.Broker.BaseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		apiKey:    cfg.Broker.APIKey,
		apiSecret: cfg.Broker.APISecret,
	}
}

func (c *Client) sign(ts, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(ts + method + path + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) setAuthHeaders(req *http.Request, ts, sign string) {
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-SIGN", sign)
	req.Header.Set("X-TIMESTAMP", ts)
	req.Header.Set("Content-Type", "application/json")
}
