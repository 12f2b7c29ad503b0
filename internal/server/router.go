// Package server exposes the scale toggle and draw action over HTTP.
package server

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pipeline produces a fresh forecast on every call.
type Pipeline interface {
	Run(ctx context.Context) (*domain.Forecast, error)
}

// Config holds the router's dependencies.
type Config struct {
	Pipeline Pipeline
	Logger   ports.Logger
}

// NewRouter builds the gin engine with every UI route registered.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))
	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templateFS, "templates/*.html")))

	h := NewChartHandler(cfg.Pipeline, cfg.Logger)
	router.GET("/", h.Index)
	router.GET("/draw", h.Draw)
	router.GET("/chart.svg", h.ChartSVG)
	router.GET("/healthz", h.Health)

	return router
}

func requestLogger(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "HTTP request served", ports.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
	}
}
