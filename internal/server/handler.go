package server

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"btcPowerLaw/internal/chart"
	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

// ChartHandler serves the scale toggle page and the charts it requests.
type ChartHandler struct {
	pipeline Pipeline
	logger   ports.Logger
}

// NewChartHandler creates a handler that runs pipeline once per draw.
func NewChartHandler(pipeline Pipeline, logger ports.Logger) *ChartHandler {
	return &ChartHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// page is the data behind templates/index.html.
type page struct {
	Scale string
	Error string
	Chart template.HTML
	Model *domain.FittedModel
}

// Index shows the controls with the default scale selected and no chart.
func (h *ChartHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{Scale: domain.DefaultScaleMode.String()})
}

// Draw re-runs the pipeline and shows the chart inline. Nothing is drawn on failure.
func (h *ChartHandler) Draw(c *gin.Context) {
	scale, err := domain.ParseScaleMode(c.Query("scale"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "index.html", page{Scale: domain.DefaultScaleMode.String(), Error: err.Error()})
		return
	}

	svg, forecast, err := h.render(c, scale)
	if err != nil {
		c.HTML(statusFor(err), "index.html", page{Scale: scale.String(), Error: err.Error()})
		return
	}

	c.HTML(http.StatusOK, "index.html", page{
		Scale: scale.String(),
		Chart: template.HTML(inlineSVG(svg)),
		Model: &forecast.Model,
	})
}

// ChartSVG re-runs the pipeline and returns the bare SVG image.
func (h *ChartHandler) ChartSVG(c *gin.Context) {
	scale, err := domain.ParseScaleMode(c.Query("scale"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svg, _, err := h.render(c, scale)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

// Health reports liveness without touching the data source.
func (h *ChartHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ChartHandler) render(c *gin.Context, scale domain.ScaleMode) ([]byte, *domain.Forecast, error) {
	ctx := c.Request.Context()
	forecast, err := h.pipeline.Run(ctx)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, forecast, scale, chart.FormatSVG); err != nil {
		h.logger.Error(ctx, err, "Failed to render chart", ports.Fields{"scale": scale.String()})
		return nil, nil, err
	}
	return buf.Bytes(), forecast, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, ports.ErrDomain),
		errors.Is(err, ports.ErrInsufficientData),
		errors.Is(err, ports.ErrNumerical):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// inlineSVG drops the XML prolog so the document can sit inside HTML.
func inlineSVG(svg []byte) string {
	s := string(svg)
	if i := strings.Index(s, "<svg"); i > 0 {
		return s[i:]
	}
	return s
}
