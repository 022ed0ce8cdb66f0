package config

import "time"

// IdentityConfig contains the upstream identity API configuration.
type IdentityConfig struct {
	// BaseURL is the upstream identity/data API origin.
	BaseURL string `env:"BASE_URL,required"`

	// Timeout bounds each upstream call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to identity configuration values.
func (i *IdentityConfig) Sanitize() {
	if i.Timeout <= 0 {
		i.Timeout = 10 * time.Second
	}
}
