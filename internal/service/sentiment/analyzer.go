package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sigmapips/internal/domain/models"
	xhttp "sigmapips/pkg/http"
	"sigmapips/pkg/logger"
)

const systemPrompt = "You are a market analyst. Summarize the current sentiment " +
	"for the requested instrument in a few short lines. Always include a line " +
	"formatted exactly as 'Direction: BULLISH', 'Direction: BEARISH' or " +
	"'Direction: NEUTRAL'."

// AnalyzerOption configures Analyzer.
type AnalyzerOption func(*Analyzer)

// WithModel sets the chat completion model.
func WithModel(model string) AnalyzerOption {
	return func(a *Analyzer) {
		a.model = model
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeout = d
	}
}

// Analyzer produces sentiment summaries via an OpenAI-compatible chat
// completions endpoint. It implements service.SentimentAnalyzer.
type Analyzer struct {
	logger  *logger.Logger
	client  *xhttp.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

// NewAnalyzer creates a sentiment analyzer.
func NewAnalyzer(lgr *logger.Logger, baseURL, apiKey string, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger:  lgr,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   "gpt-4o-mini",
		timeout: 20 * time.Second,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.client = xhttp.NewClient(xhttp.WithTimeout(a.timeout))
	return a
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze returns a sentiment summary for the instrument. Failures are
// wrapped as EnrichmentUnavailable so the pipeline can degrade.
func (a *Analyzer) Analyze(ctx context.Context, instrument string) (string, error) {
	req := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Market sentiment for %s", instrument)},
		},
	}

	var resp chatResponse
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    a.baseURL + "/v1/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + a.apiKey,
		},
		Body: req,
	}, &resp)
	if err != nil {
		return "", &models.EnrichmentUnavailable{Source: "sentiment", Err: err}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &models.EnrichmentUnavailable{Source: "sentiment", Err: fmt.Errorf("empty completion")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
