package config

import "time"

// NotifyConfig contains failure notification configuration. Failures are
// always logged; a webhook sink is added when a URL is configured.
type NotifyConfig struct {
	// WebhookURL is the endpoint receiving failure events. Empty disables
	// the webhook sink.
	WebhookURL string `env:"WEBHOOK_URL" envDefault:""`

	// Source identifies this gateway in webhook payloads.
	Source string `env:"SOURCE" envDefault:"portal-gateway"`

	// AckExpr is an optional JMESPath expression evaluated against the
	// webhook response to confirm delivery.
	AckExpr string `env:"ACK_EXPR" envDefault:""`

	// Timeout bounds each webhook delivery.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`

	// RetryLimit is the number of delivery retries after the first attempt.
	RetryLimit int `env:"RETRY_LIMIT" envDefault:"2"`
}

// Sanitize applies guardrails to notification configuration values.
func (n *NotifyConfig) Sanitize() {
	if n.Timeout <= 0 {
		n.Timeout = 5 * time.Second
	}
	if n.RetryLimit < 0 {
		n.RetryLimit = 0
	}
}
