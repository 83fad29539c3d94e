package service

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pool_trader/internal/modules/config"
)

// HealthSink is the slice of the health state the streamer reports into.
type HealthSink interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

// Client talks to the market data provider: historical bars over HTTP,
// live ticks over a websocket subscription.
type Client struct {
	cfg *config.Config

	http     *http.Client
	wsDialer *websocket.Dialer
	health   HealthSink
}

func NewClient(cfg *config.Config, health HealthSink) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{},
		health:   health,
	}
}
