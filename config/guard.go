package config

// GuardConfig contains route guard configuration.
type GuardConfig struct {
	// PublicRoutes lists route-name prefixes that never need a session.
	// The default matches the portal's anonymous surface.
	PublicRoutes []string `env:"GUARD_PUBLIC_ROUTES" envSeparator:"," envDefault:"login,forgot-password,reset-password,print,offers"`
}

// Sanitize applies guardrails to guard configuration values.
func (g *GuardConfig) Sanitize() {
	cleaned := g.PublicRoutes[:0]
	for _, name := range g.PublicRoutes {
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	g.PublicRoutes = cleaned
}
