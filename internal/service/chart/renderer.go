package chart

import (
	"context"
	"strings"
	"time"

	"sigmapips/internal/domain/models"
	xhttp "sigmapips/pkg/http"
	"sigmapips/pkg/logger"
)

// RendererOption configures Renderer.
type RendererOption func(*Renderer)

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// WithLocalFallback toggles drawing a local chart when the remote
// screenshot service is unavailable.
func WithLocalFallback(enabled bool) RendererOption {
	return func(r *Renderer) {
		r.fallback = enabled
	}
}

// Renderer fetches chart images from a remote screenshot service. When the
// service fails and fallback is enabled, it draws a synthetic price chart
// locally so subscribers still get a visual. Implements
// service.ChartRenderer.
type Renderer struct {
	logger   *logger.Logger
	client   *xhttp.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	fallback bool
}

// NewRenderer creates a chart renderer. An empty baseURL means local-only
// rendering.
func NewRenderer(lgr *logger.Logger, baseURL, apiKey string, opts ...RendererOption) *Renderer {
	r := &Renderer{
		logger:   lgr,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		timeout:  30 * time.Second,
		fallback: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.client = xhttp.NewClient(xhttp.WithTimeout(r.timeout))
	return r
}

// Render returns PNG bytes for the instrument and timeframe.
func (r *Renderer) Render(ctx context.Context, instrument, timeframe string) ([]byte, error) {
	if r.baseURL != "" {
		img, err := r.renderRemote(ctx, instrument, timeframe)
		if err == nil {
			return img, nil
		}
		if !r.fallback {
			return nil, &models.EnrichmentUnavailable{Source: "chart", Err: err}
		}
		r.logger.Warn("remote chart failed, drawing local fallback",
			logger.String("instrument", instrument),
			logger.Error(err))
	}

	img, err := drawPriceChart(instrument, timeframe)
	if err != nil {
		return nil, &models.EnrichmentUnavailable{Source: "chart", Err: err}
	}
	return img, nil
}

func (r *Renderer) renderRemote(ctx context.Context, instrument, timeframe string) ([]byte, error) {
	headers := map[string]string{}
	if r.apiKey != "" {
		headers["Authorization"] = "Bearer " + r.apiKey
	}

	var img []byte
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     r.baseURL + "/chart",
		Headers: headers,
		QueryParams: map[string][]string{
			"symbol":   {instrument},
			"interval": {timeframe},
		},
	}, &img)
	if err != nil {
		return nil, err
	}
	return img, nil
}
