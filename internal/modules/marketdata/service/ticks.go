package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"pool_trader/internal/models"
	"pool_trader/pkg/logger"
)

// StreamTicks — one websocket for the whole symbol batch. Reconnects with
// a short backoff until ctx is cancelled; the channel closes on cancel.
func (c *Client) StreamTicks(ctx context.Context, symbols []string) <-chan models.Tick {
	ch := make(chan models.Tick)

	go func() {
		defer close(ch)

		if len(symbols) == 0 {
			return
		}

		args := make([]map[string]string, 0, len(symbols))
		for _, s := range symbols {
			args = append(args, map[string]string{
				"channel": "ticks",
				"symbol":  s,
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn, _, err := c.wsDialer.Dial(c.cfg.MarketData.WSURL, nil)
			if err != nil {
				logger.Warn("ws dial error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if c.health != nil {
				c.health.SetWSConnected(true)
			}

			sub := map[string]any{
				"op":   "subscribe",
				"args": args,
			}
			if err := conn.WriteJSON(sub); err != nil {
				logger.Warn("ws subscribe error: %v", err)
				_ = conn.Close()
				continue
			}

			// keepalive ping so the provider does not drop the idle conn
			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(20 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-stopPing:
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"op": "ping"})
					}
				}
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					logger.Warn("ws read error: %v", err)
					_ = conn.Close()
					close(stopPing)
					if c.health != nil {
						c.health.SetWSConnected(false)
					}
					break
				}

				var frame struct {
					Arg struct {
						Channel string `json:"channel"`
						Symbol  string `json:"symbol"`
					} `json:"arg"`
					Data []struct {
						Price  float64 `json:"price"`
						Volume float64 `json:"volume"`
						Ts     int64   `json:"ts"`
					} `json:"data"`
				}
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue
				}
				if frame.Arg.Channel != "ticks" || len(frame.Data) == 0 {
					continue
				}

				for _, row := range frame.Data {
					if row.Price <= 0 {
						continue
					}
					tick := models.Tick{
						Symbol:    frame.Arg.Symbol,
						Price:     row.Price,
						Volume:    row.Volume,
						Timestamp: time.UnixMilli(row.Ts),
					}
					if c.health != nil {
						c.health.TouchTick(tick.Timestamp)
					}
					select {
					case <-ctx.Done():
						_ = conn.Close()
						return
					case ch <- tick:
					}
				}
			}
		}
	}()

	return ch
}
