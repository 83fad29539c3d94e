package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

type barRow struct {
	Timestamp int64   `json:"ts"` // unix millis
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Turnover  float64 `json:"turnover"`
}

type barsResponse struct {
	Code int      `json:"code"`
	Msg  string   `json:"msg"`
	Data []barRow `json:"data"`
}

// GetBars fetches up to count historical bars for one symbol, ordered by
// timestamp ascending. Any failure wraps ErrDataFetch so batch callers can
// classify it as a per-symbol, non-fatal error.
func (c *Client) GetBars(ctx context.Context, symbol string, count int) ([]models.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", c.cfg.MarketData.BarPeriod)
	q.Set("adjust", c.cfg.MarketData.AdjustType)
	q.Set("count", strconv.Itoa(count))

	endpoint := c.cfg.MarketData.BaseURL + "/api/v1/bars?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: new request: %v", symbol, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: %v", symbol, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: http %d: %s", symbol, resp.StatusCode, string(data))
	}

	var r barsResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: decode: %v", symbol, err)
	}
	if r.Code != 0 {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: provider code=%d msg=%s", symbol, r.Code, r.Msg)
	}

	bars := make([]models.Bar, 0, len(r.Data))
	for _, row := range r.Data {
		b := models.Bar{
			Symbol:    symbol,
			Timestamp: time.UnixMilli(row.Timestamp),
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
			Turnover:  row.Turnover,
		}
		if !validBar(b) {
			continue
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

// validBar enforces the stored-bar invariant: low/high bracket open and
// close, prices positive.
func validBar(b models.Bar) bool {
	if b.Close <= 0 || b.Open <= 0 {
		return false
	}
	if b.Low > min(b.Open, b.Close) {
		return false
	}
	if b.High < max(b.Open, b.Close) {
		return false
	}
	return true
}

// GetRecentTicks fetches the latest trades for a symbol.
func (c *Client) GetRecentTicks(ctx context.Context, symbol string, limit int) ([]models.Tick, error) {
	endpoint := fmt.Sprintf("%s/api/v1/ticks?symbol=%s&limit=%d",
		c.cfg.MarketData.BaseURL, url.QueryEscape(symbol), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: new request: %v", symbol, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: %v", symbol, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: http %d: %s", symbol, resp.StatusCode, string(data))
	}

	var r struct {
		Code int `json:"code"`
		Data []struct {
			Price  float64 `json:"price"`
			Volume float64 `json:"volume"`
			Ts     int64   `json:"ts"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: decode: %v", symbol, err)
	}

	ticks := make([]models.Tick, 0, len(r.Data))
	for _, row := range r.Data {
		ticks = append(ticks, models.Tick{
			Symbol:    symbol,
			Price:     row.Price,
			Volume:    row.Volume,
			Timestamp: time.UnixMilli(row.Ts),
		})
	}
	return ticks, nil
}
