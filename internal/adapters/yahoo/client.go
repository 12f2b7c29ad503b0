package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements ports.PriceSource using the Yahoo Finance public chart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Yahoo adapter.
type Config struct {
	BaseURL  string // Defaults to the public endpoint
	ProxyURL string // Optional HTTP proxy
	Logger   ports.Logger
}

var _ ports.PriceSource = (*Client)(nil)

// New creates a Yahoo Finance client. Requests carry no timeout of their own;
// they end when the server answers or the caller's context is done.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w: %w", cfg.ProxyURL, ports.ErrConfigurationError, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
		logger:     cfg.Logger,
	}, nil
}

func (c *Client) Name() string { return "yahoo" }

// chartResponse is the subset of the v8 chart payload used here.
// Prices are pointers because Yahoo reports missing bars as null.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory downloads daily closes for symbol within window.
func (c *Client) FetchHistory(ctx context.Context, symbol string, window domain.Window) ([]domain.Observation, error) {
	op := "FetchHistory"
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(window.Start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(window.End.Unix(), 10))
	q.Set("events", "history")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err), op)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	c.logger.Debug(ctx, "Requesting Yahoo chart", ports.Fields{"symbol": symbol, "window": window.String()})
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("read body: %w", err), op)
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		apiErr := fmt.Errorf("yahoo api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
		return nil, c.handleError(ctx, classifyStatus(resp.StatusCode, apiErr), op)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(ctx, classifyStatus(resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 256))), op)
	}
	if decodeErr != nil {
		return nil, c.handleError(ctx, fmt.Errorf("decode chart: %w", decodeErr), op)
	}

	obs := toObservations(&chart, window)
	if len(obs) == 0 {
		return nil, c.handleError(ctx, fmt.Errorf("%s %s: %w", symbol, window, ports.ErrNoData), op)
	}
	c.logger.Info(ctx, "Fetched price history", ports.Fields{
		"source": c.Name(), "symbol": symbol, "count": len(obs),
		"first": obs[0].Date.Format(time.DateOnly), "last": obs[len(obs)-1].Date.Format(time.DateOnly),
	})
	return obs, nil
}

// toObservations converts the chart payload to ascending, de-duplicated daily closes.
// Bars with a null or non-positive close are holidays or gaps and are skipped.
func toObservations(chart *chartResponse, window domain.Window) []domain.Observation {
	if len(chart.Chart.Result) == 0 {
		return nil
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close

	byDate := make(map[time.Time]float64, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		// Exchange-local calendar date of the bar.
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if !window.Contains(day) {
			continue
		}
		byDate[day] = *closes[i] // a later bar for the same day wins
	}

	obs := make([]domain.Observation, 0, len(byDate))
	for day, price := range byDate {
		obs = append(obs, domain.Observation{Date: day, Price: price})
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs
}

func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ports.ErrRateLimited, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ports.ErrAuthenticationFailed, err)
	case status == http.StatusNotFound || status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	case status >= 500:
		return fmt.Errorf("%w: %w", ports.ErrConnectionFailed, err)
	default:
		return err
	}
}

// handleError wraps err with ports.ErrFetch plus a transport class and logs it.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	fields := ports.Fields{"operation": operation, "source": c.Name()}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrFetch, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %w: %w", operation, ports.ErrFetch, ports.ErrContextCanceled, err)
	case isClassified(err):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrFetch, err)
	default:
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrFetch, ports.ErrConnectionFailed, err)
		} else {
			finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrFetch, ports.ErrUnknown, err)
		}
	}

	c.logger.Error(ctx, err, fmt.Sprintf("Yahoo %s failed", operation), fields)
	return finalErr
}

func isClassified(err error) bool {
	for _, target := range []error{
		ports.ErrRateLimited, ports.ErrAuthenticationFailed, ports.ErrInvalidRequest,
		ports.ErrConnectionFailed, ports.ErrNoData,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
