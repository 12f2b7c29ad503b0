package sqlite

import (
	"context"
	"path/filepath"
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
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {}

// setupTestCache creates a cache in a temporary directory
func setupTestCache(t *testing.T) *FitCache {
	t.Helper()
	cache, err := NewFitCache(Config{
		DBPath: filepath.Join(t.TempDir(), "data", "fits.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testKey() ports.FitKey {
	return ports.FitKey{
		Source: "yahoo",
		Symbol: "BTC-USD",
		Window: domain.Window{
			Start: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Origin:    domain.GenesisDate,
		Count:     3393,
		LastDate:  time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		LastPrice: 42265.1875,
		Digest:    "5f2b6c0e9a4d8e1c7b3a2f6d0c9e8b7a6f5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c",
	}
}

func TestFitCache_PutAndGet(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()
	key := testKey()

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	model := domain.FittedModel{Intercept: -38.16, Slope: 5.82}
	require.NoError(t, cache.Put(ctx, key, model))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model, got)

	// Replacing an entry keeps a single row per key.
	updated := domain.FittedModel{Intercept: -38.0, Slope: 5.8}
	require.NoError(t, cache.Put(ctx, key, updated))
	got, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestFitCache_KeyCoversData(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, testKey(), domain.FittedModel{Intercept: 1, Slope: 2}))

	variants := map[string]func(k *ports.FitKey){
		"new observation": func(k *ports.FitKey) { k.Count++ },
		"revised close":   func(k *ports.FitKey) { k.LastPrice = 42000 },
		"revised history": func(k *ports.FitKey) { k.Digest = "0000" },
		"other source":    func(k *ports.FitKey) { k.Source = "binance" },
		"other origin":    func(k *ports.FitKey) { k.Origin = k.Origin.AddDate(0, 0, 1) },
		"other window":    func(k *ports.FitKey) { k.Window.End = k.Window.End.AddDate(1, 0, 0) },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			k := testKey()
			mutate(&k)
			_, ok, err := cache.Get(ctx, k)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFitCache_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fits.db")
	ctx := context.Background()

	first, err := NewFitCache(Config{DBPath: path, Logger: &mockLogger{}})
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, testKey(), domain.FittedModel{Intercept: 3, Slope: 4}))
	require.NoError(t, first.Close())

	second, err := NewFitCache(Config{DBPath: path, Logger: &mockLogger{}})
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := second.Get(ctx, testKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.FittedModel{Intercept: 3, Slope: 4}, got)
}

func TestNewFitCache_Validation(t *testing.T) {
	_, err := NewFitCache(Config{DBPath: "x.db"})
	assert.Error(t, err)

	_, err = NewFitCache(Config{Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}
