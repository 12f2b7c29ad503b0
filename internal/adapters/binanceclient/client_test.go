package binanceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

const dayMs = int64(24 * time.Hour / time.Millisecond)

// priceAt is the close served for the day starting at openMs.
func priceAt(openMs int64) float64 {
	return float64(openMs/dayMs) / 10
}

// klineServer serves daily klines between startTime and endTime, honoring limit.
func klineServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))

		start, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(r.URL.Query().Get("endTime"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		rows := make([][]interface{}, 0, limit)
		for open := (start + dayMs - 1) / dayMs * dayMs; open <= end && len(rows) < limit; open += dayMs {
			p := strconv.FormatFloat(priceAt(open), 'f', -1, 64)
			rows = append(rows, []interface{}{open, p, p, p, p, "1.0", open + dayMs - 1, "1.0", 10, "0.5", "0.5", "0"})
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(rows))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, RequestsPerSecond: 1000, Logger: &mockLogger{}})
	require.NoError(t, err)
	return c
}

func TestClient_FetchHistory_Paginates(t *testing.T) {
	var requests int32
	srv := klineServer(t, &requests)
	c := newTestClient(t, srv.URL)

	window := domain.Window{
		Start: time.Date(2017, 8, 17, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	obs, err := c.FetchHistory(context.Background(), "BTCUSDT", window)
	require.NoError(t, err)

	expectedDays := int(window.End.Sub(window.Start).Hours() / 24)
	require.Len(t, obs, expectedDays)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))

	assert.Equal(t, window.Start, obs[0].Date)
	assert.Equal(t, window.End.AddDate(0, 0, -1), obs[len(obs)-1].Date)
	for i := 1; i < len(obs); i++ {
		require.True(t, obs[i].Date.After(obs[i-1].Date))
		require.Equal(t, 24*time.Hour, obs[i].Date.Sub(obs[i-1].Date))
	}
	assert.Equal(t, priceAt(window.Start.UnixMilli()), obs[0].Price)
}

func TestClient_FetchHistory_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchHistory(context.Background(), "BTCUSDT", domain.Window{
		Start: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ports.ErrFetch)
	assert.ErrorIs(t, err, ports.ErrNoData)
}

func TestClient_FetchHistory_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"unknown symbol", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, ports.ErrInvalidRequest},
		{"rate limited", http.StatusTooManyRequests, `{"code":-1003,"msg":"Too many requests."}`, ports.ErrRateLimited},
		{"unmapped code", http.StatusBadRequest, `{"code":-9999,"msg":"???"}`, ports.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()
			c := newTestClient(t, srv.URL)

			_, err := c.FetchHistory(context.Background(), "NOPE", domain.Window{
				Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrFetch)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestClient_FetchHistory_Canceled(t *testing.T) {
	var requests int32
	srv := klineServer(t, &requests)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchHistory(ctx, "BTCUSDT", domain.Window{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{RequestsPerSecond: 1})
	assert.Error(t, err)

	_, err = New(Config{Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	c, err := New(Config{Logger: &mockLogger{}, RequestsPerSecond: 2})
	require.NoError(t, err)
	assert.Equal(t, "binance", c.Name())
	assert.Equal(t, baseURLProduction, c.spot.BaseURL)
}
