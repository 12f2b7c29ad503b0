package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {}

type stubPipeline struct {
	forecast *domain.Forecast
	err      error
	calls    int
}

func (s *stubPipeline) Run(ctx context.Context) (*domain.Forecast, error) {
	s.calls++
	return s.forecast, s.err
}

func testForecast() *domain.Forecast {
	day := func(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }
	return &domain.Forecast{
		Symbol:  "BTC-USD",
		Origin:  domain.GenesisDate,
		Model:   domain.FittedModel{Intercept: -38.1, Slope: 5.8},
		History: []domain.Observation{{Date: day(2015), Price: 300}, {Date: day(2020), Price: 7000}},
		Trend:   []domain.ForecastPoint{{Date: day(2015), Price: 200}, {Date: day(2020), Price: 9000}},
		Future:  []domain.ForecastPoint{{Date: day(2024), Price: 30000}, {Date: day(2100), Price: 1e8}},
	}
}

func newTestRouter(p Pipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(&Config{Pipeline: p, Logger: &mockLogger{}})
}

func serve(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestIndex(t *testing.T) {
	p := &stubPipeline{forecast: testForecast()}
	w := serve(newTestRouter(p), "/")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Bitcoin Price Prediction</title>")
	assert.Contains(t, body, `value="log" checked`)
	assert.NotContains(t, body, `value="linear" checked`)
	assert.Contains(t, body, "Draw Chart")
	assert.NotContains(t, body, "<svg")
	assert.Zero(t, p.calls, "index must not run the pipeline")
}

func TestDraw(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		checked string
	}{
		{"default scale", "/draw", `value="log" checked`},
		{"logarithmic", "/draw?scale=log", `value="log" checked`},
		{"linear", "/draw?scale=linear", `value="linear" checked`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPipeline{forecast: testForecast()}
			w := serve(newTestRouter(p), tt.target)

			assert.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, tt.checked)
			assert.Contains(t, body, "<svg")
			assert.NotContains(t, body, "<?xml")
			assert.Equal(t, 1, p.calls)
		})
	}
}

func TestDraw_RerunsPipelineEachTime(t *testing.T) {
	p := &stubPipeline{forecast: testForecast()}
	router := newTestRouter(p)

	serve(router, "/draw?scale=log")
	serve(router, "/draw?scale=linear")
	serve(router, "/draw?scale=log")
	assert.Equal(t, 3, p.calls)
}

func TestDraw_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"fetch", errors.Join(ports.ErrFetch, ports.ErrTimeout), http.StatusBadGateway},
		{"domain", ports.ErrDomain, http.StatusUnprocessableEntity},
		{"insufficient data", ports.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"numerical", ports.ErrNumerical, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newTestRouter(&stubPipeline{err: tt.err}), "/draw?scale=linear")

			assert.Equal(t, tt.status, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, `class="error"`)
			assert.NotContains(t, body, "<svg")
			assert.Contains(t, body, `value="linear" checked`)
		})
	}
}

func TestDraw_LogScaleRejectsNonPositive(t *testing.T) {
	f := testForecast()
	f.History[0].Price = 0

	w := serve(newTestRouter(&stubPipeline{forecast: f}), "/draw?scale=log")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(newTestRouter(&stubPipeline{forecast: f}), "/draw?scale=linear")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDraw_BadScale(t *testing.T) {
	p := &stubPipeline{forecast: testForecast()}
	w := serve(newTestRouter(p), "/draw?scale=cubic")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, p.calls)
}

func TestChartSVG(t *testing.T) {
	w := serve(newTestRouter(&stubPipeline{forecast: testForecast()}), "/chart.svg?scale=linear")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")

	w = serve(newTestRouter(&stubPipeline{err: ports.ErrFetch}), "/chart.svg")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestHealth(t *testing.T) {
	w := serve(newTestRouter(&stubPipeline{}), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
