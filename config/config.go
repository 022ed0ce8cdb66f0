package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config files for
// details on available environment variables:
//   - http.go: HTTP server and session cookie configuration
//   - identity.go: upstream identity API configuration
//   - database.go: Postgres and redis configuration
//   - guard.go: route guard configuration
//   - notify.go: failure notification configuration
type AppConfig struct {
	HTTP     HTTPConfig
	Identity IdentityConfig `envPrefix:"IDENTITY_"`
	Postgres DBConfig       `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Guard    GuardConfig
	Notify   NotifyConfig `envPrefix:"NOTIFY_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// Call it after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Identity.Sanitize()
	c.Guard.Sanitize()
	c.Notify.Sanitize()
}
