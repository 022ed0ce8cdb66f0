package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/europgreen/portal-gateway/internal/observability/notify"
)

// Config captures the subset of webhook behaviour we need.
type Config struct {
	// URL is the webhook endpoint.
	URL string
	// Source names the emitting service in the payload.
	Source string
	// AckExpr is an optional JMESPath expression evaluated against the
	// webhook's JSON response; a falsy result fails the delivery.
	AckExpr string
	// Timeout bounds each delivery attempt.
	Timeout time.Duration
	// RetryLimit is the number of re-attempts after the first failure.
	RetryLimit int
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Sink delivers failure events to a JSON webhook.
type Sink struct {
	url        string
	source     string
	ackExpr    string
	retryLimit int
	client     *http.Client
}

// NewSink builds a webhook sink. Callers should pass a validated config.
func NewSink(cfg Config) (*Sink, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("webhook url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}
	if strings.TrimSpace(cfg.AckExpr) != "" {
		if _, err := jmespath.Compile(cfg.AckExpr); err != nil {
			return nil, fmt.Errorf("compile ack expression: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "portal-gateway"
	}

	return &Sink{
		url:        endpoint,
		source:     source,
		ackExpr:    strings.TrimSpace(cfg.AckExpr),
		retryLimit: retries,
		client:     hc,
	}, nil
}

type payload struct {
	Source     string `json:"source"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Code       string `json:"code,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// SendFailure posts the event as JSON, retrying up to the configured limit.
func (s *Sink) SendFailure(ctx context.Context, event notify.Event) error {
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	body, err := json.Marshal(payload{
		Source:     s.source,
		Title:      event.Title,
		Message:    event.Message,
		Severity:   event.Severity,
		Code:       event.Code,
		OccurredAt: occurred.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	attempts := s.retryLimit + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = s.deliver(ctx, body)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempts, lastErr)
}

func (s *Sink) deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	if s.ackExpr == "" {
		return nil
	}
	return s.checkAck(resp.Body)
}

// checkAck evaluates the configured JMESPath expression against the
// response body and fails the delivery on a falsy result.
func (s *Sink) checkAck(body io.Reader) error {
	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return fmt.Errorf("read webhook response: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode webhook response: %w", err)
	}

	result, err := jmespath.Search(s.ackExpr, decoded)
	if err != nil {
		return fmt.Errorf("evaluate ack expression: %w", err)
	}
	if !truthy(result) {
		return fmt.Errorf("webhook did not acknowledge delivery (ack %v)", result)
	}
	return nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	default:
		return true
	}
}
