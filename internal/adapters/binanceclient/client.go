package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"golang.org/x/time/rate"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

const (
	baseURLProduction = "https://api.binance.com"

	dailyInterval = "1d"
	maxPageSize   = 1000 // Spot klines endpoint limit
)

// Client implements ports.PriceSource with Binance spot daily klines.
type Client struct {
	spot    *binance.Client
	limiter *rate.Limiter
	logger  ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey            string // Optional, klines are public
	SecretKey         string
	BaseURL           string // Defaults to production
	RequestsPerSecond float64
	Logger            ports.Logger
}

var _ ports.PriceSource = (*Client)(nil)

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive: %w", ports.ErrConfigurationError)
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	client.BaseURL = baseURLProduction
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", ports.Fields{"baseURL": client.BaseURL})

	return &Client{
		spot:    client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  cfg.Logger,
	}, nil
}

func (c *Client) Name() string { return "binance" }

// FetchHistory pages through daily klines from window.Start up to window.End.
func (c *Client) FetchHistory(ctx context.Context, symbol string, window domain.Window) ([]domain.Observation, error) {
	op := "FetchHistory"
	var obs []domain.Observation
	from := window.Start
	endMs := window.End.UnixMilli() - 1

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		klines, err := c.spot.NewKlinesService().
			Symbol(symbol).
			Interval(dailyInterval).
			StartTime(from.UnixMilli()).
			EndTime(endMs).
			Limit(maxPageSize).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		c.logger.Debug(ctx, "Fetched kline page", ports.Fields{"symbol": symbol, "page": page, "count": len(klines)})

		for _, k := range klines {
			o, err := translateKline(k)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
			}
			if !window.Contains(o.Date) || (len(obs) > 0 && !o.Date.After(obs[len(obs)-1].Date)) {
				continue
			}
			obs = append(obs, o)
		}

		if len(klines) < maxPageSize {
			break
		}
		from = time.UnixMilli(klines[len(klines)-1].CloseTime + 1)
		if !from.Before(window.End) {
			break
		}
	}

	if len(obs) == 0 {
		return nil, c.handleError(ctx, fmt.Errorf("%s %s: %w", symbol, window, ports.ErrNoData), op)
	}
	c.logger.Info(ctx, "Fetched price history", ports.Fields{
		"source": c.Name(), "symbol": symbol, "count": len(obs),
		"first": obs[0].Date.Format(time.DateOnly), "last": obs[len(obs)-1].Date.Format(time.DateOnly),
	})
	return obs, nil
}

// translateKline keeps the UTC open date and the close of a daily kline.
func translateKline(k *binance.Kline) (domain.Observation, error) {
	if k == nil {
		return domain.Observation{}, errors.New("received nil kline")
	}
	cls, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parsing close price '%s': %w", k.Close, err)
	}
	open := time.UnixMilli(k.OpenTime).UTC()
	return domain.Observation{
		Date:  time.Date(open.Year(), open.Month(), open.Day(), 0, 0, 0, 0, time.UTC),
		Price: cls,
	}, nil
}

// handleError translates Binance and transport errors into ports errors, all under ErrFetch.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	fields := ports.Fields{"operation": operation, "source": c.Name()}

	var mappedErr error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Signature or API-key rejected
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1120, -1121: // Parameter errors, -1121 is an unknown symbol
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
	case errors.Is(err, ports.ErrNoData):
		mappedErr = ports.ErrNoData
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	case strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "no such host"):
		mappedErr = ports.ErrConnectionFailed
	default:
		mappedErr = ports.ErrUnknown
	}

	c.logger.Error(ctx, err, fmt.Sprintf("Binance %s failed", operation), fields)
	if errors.Is(err, mappedErr) {
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrFetch, err)
	}
	return fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrFetch, mappedErr, err)
}
