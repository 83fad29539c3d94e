package service

import (
	"context"
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

func testClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.MarketData.BaseURL = baseURL
	cfg.MarketData.BarPeriod = "daily"
	cfg.MarketData.AdjustType = "forward"
	return NewClient(cfg, nil)
}

func TestGetBarsParsesAndOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "600519", r.URL.Query().Get("symbol"))
		assert.Equal(t, "daily", r.URL.Query().Get("period"))
		assert.Equal(t, "forward", r.URL.Query().Get("adjust"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))

		w.Header().Set("Content-Type", "application/json")
		// out of order on purpose; the client sorts ascending
		_, _ = w.Write([]byte(`{"code":0,"data":[
			{"ts":1756252800000,"open":11,"high":11.5,"low":10.8,"close":11.2,"volume":900},
			{"ts":1756166400000,"open":10,"high":10.6,"low":9.9,"close":10.5,"volume":1000}
		]}`))
	}))
	defer server.Close()

	bars, err := testClient(server.URL).GetBars(context.Background(), "600519", 3)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, "600519", bars[0].Symbol)
}

func TestGetBarsDropsMalformedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"data":[
			{"ts":1756166400000,"open":10,"high":10.6,"low":9.9,"close":10.5,"volume":1000},
			{"ts":1756252800000,"open":11,"high":10.9,"low":10.8,"close":11.2,"volume":900},
			{"ts":1756339200000,"open":0,"high":1,"low":0,"close":1,"volume":100}
		]}`))
	}))
	defer server.Close()

	bars, err := testClient(server.URL).GetBars(context.Background(), "600519", 3)
	require.NoError(t, err)
	// high below close and zero open are both invalid
	require.Len(t, bars, 1)
	assert.Equal(t, 10.5, bars[0].Close)
}

func TestGetBarsWrapsFailuresAsDataFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetBars(context.Background(), "600519", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataFetch))
	assert.Contains(t, err.Error(), "upstream exploded")

	codeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":40001,"msg":"symbol suspended"}`))
	}))
	defer codeServer.Close()

	_, err = testClient(codeServer.URL).GetBars(context.Background(), "600519", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataFetch))
	assert.Contains(t, err.Error(), "symbol suspended")
}

func baseTime() time.Time {
	return time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
}

func TestPriceCacheKeepsNewest(t *testing.T) {
	cache := NewPriceCache()

	older := models.Tick{Symbol: "600519", Price: 10, Timestamp: baseTime()}
	newer := models.Tick{Symbol: "600519", Price: 11, Timestamp: baseTime().Add(time.Second)}

	cache.Set(newer)
	cache.Set(older) // stale frame must not regress the cache

	got, ok := cache.Latest("600519")
	require.True(t, ok)
	assert.Equal(t, 11.0, got.Price)

	_, ok = cache.Latest("000858")
	assert.False(t, ok)
}
