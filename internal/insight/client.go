package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/chronogen/internal/metrics"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 30 * time.Second

	generatePath   = "/v1beta/models/{model}:generateContent"
	headerAPIKey   = "x-goog-api-key"
	temperature    = 0.9
	thinkingBudget = 0
)

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	log    logrus.FieldLogger
	rest   *resty.Client
	apiKey string
	model  string
}

// NewClient creates an insight client. An empty model selects DefaultModel.
func NewClient(log logrus.FieldLogger, rest *resty.Client, apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		log:    log,
		rest:   rest,
		apiKey: apiKey,
		model:  model,
	}
}

// NewDefaultRestyClient configures the resty.Client used for insight requests.
// Requests are never retried.
func NewDefaultRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rest := resty.NewWithClient(&http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	})
	rest.SetBaseURL(baseURL)
	rest.SetRetryCount(0)
	return rest
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature    float64        `json:"temperature"`
	ThinkingConfig thinkingConfig `json:"thinkingConfig"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Prompt builds the request text for a duration.
func Prompt(seconds int) string {
	return fmt.Sprintf(
		"Tell me a brief, interesting, scientific, or fun fact related to the duration of exactly %d seconds. "+
			"If it's a short duration, compare it to something fast (e.g., animal speed, light travel). "+
			"If it's longer, compare it to a historical event or daily activity. "+
			"Keep it under 2 sentences. Fun and engaging tone.",
		seconds,
	)
}

// Generate returns a fact about seconds, or fallback text if anything goes wrong.
func (c *Client) Generate(ctx context.Context, seconds int) Result {
	log := c.log.WithFields(logrus.Fields{"seconds": seconds, "model": c.model})

	if seconds < 1 {
		metrics.InsightRequests.WithLabelValues(metrics.OutcomeFallback).Inc()
		return failed(seconds, ErrDurationTooShort)
	}
	if c.apiKey == "" {
		log.Warn("insight requested without an API key")
		metrics.InsightRequests.WithLabelValues(metrics.OutcomeFallback).Inc()
		return failed(seconds, ErrMissingAPIKey)
	}

	start := time.Now()
	text, err := c.generate(ctx, seconds)
	metrics.InsightLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		log.WithError(err).Warn("generating duration fact")
		metrics.InsightRequests.WithLabelValues(metrics.OutcomeFallback).Inc()
		return failed(seconds, err)
	}
	if text == "" {
		log.Debug("insight response had no text")
		metrics.InsightRequests.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return Result{Seconds: seconds, Text: EmptyText(seconds), Fallback: true}
	}

	log.Debug("generated duration fact")
	metrics.InsightRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	return Result{Seconds: seconds, Text: text}
}

func (c *Client) generate(ctx context.Context, seconds int) (string, error) {
	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: Prompt(seconds)}},
		}},
		GenerationConfig: generationConfig{
			Temperature:    temperature,
			ThinkingConfig: thinkingConfig{ThinkingBudget: thinkingBudget},
		},
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader(headerAPIKey, c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetPathParam("model", c.model).
		SetBody(body).
		Post(generatePath)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: resp.String()}
		var errResp errorResponse
		if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Error.Message != "" {
			apiErr.Status = errResp.Error.Status
			apiErr.Message = errResp.Error.Message
		}
		return "", apiErr
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
