package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
)

// Route identifies a navigation target: the declared route name and the
// concrete path being visited.
type Route struct {
	Name string
	Path string
}

// DecisionKind enumerates guard outcomes.
type DecisionKind string

const (
	// DecisionAllow lets the navigation proceed (possibly anonymously).
	DecisionAllow DecisionKind = "allow"
	// DecisionRedirect replaces the target with the landing route.
	DecisionRedirect DecisionKind = "redirect"
	// DecisionLogin sends the visitor to the login entry point carrying
	// the originally requested path.
	DecisionLogin DecisionKind = "login"
)

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	Kind DecisionKind
	// Location is the redirect target for non-allow decisions.
	Location string
}

// GuardConfig declares the public route set and the capability gates.
type GuardConfig struct {
	// PublicRoutes lists route-name prefixes exempt from the guard,
	// matched against Route.Name at dash boundaries.
	PublicRoutes []string
	// Gates maps a path section to the capability required to enter it.
	// Nil selects DefaultGates.
	Gates map[string]auth.Capability
}

// DefaultPublicRoutes are the navigations that never need a session:
// authentication entry points and the public print/share views.
func DefaultPublicRoutes() []string {
	return []string{"login", "forgot-password", "reset-password", "print", "offers"}
}

// DefaultGates maps the gated path sections to their capability flags.
func DefaultGates() map[string]auth.Capability {
	return map[string]auth.Capability{
		"requests":      auth.CapabilityRequests,
		"offers":        auth.CapabilityOffers,
		"installations": auth.CapabilityInstallation,
	}
}

// Guard decides, before each navigation commits, whether the visitor may
// proceed. It resolves the session lazily, running the fetch → refresh →
// retry chain to completion before the view renders.
type Guard struct {
	public map[string]struct{}
	gates  map[string]auth.Capability
}

// NewGuard constructs a Guard from configuration.
func NewGuard(cfg GuardConfig) *Guard {
	names := cfg.PublicRoutes
	if names == nil {
		names = DefaultPublicRoutes()
	}
	public := make(map[string]struct{}, len(names))
	for _, name := range names {
		public[name] = struct{}{}
	}

	gates := cfg.Gates
	if gates == nil {
		gates = DefaultGates()
	}

	return &Guard{public: public, gates: gates}
}

// Evaluate runs the guard for one navigation attempt against the given
// session store. It blocks until the decision is final, including the
// nested fetch/refresh/retry chain.
func (g *Guard) Evaluate(ctx context.Context, store *SessionStore, target Route) Decision {
	if g.isPublic(target) {
		return Decision{Kind: DecisionAllow}
	}

	if store.User() == nil {
		if !g.resolveSession(ctx, store) {
			// Unauthenticated after the full chain: application routes
			// bounce to login with a return path, anything else is left
			// to render anonymously.
			if isHomeTarget(target) {
				return Decision{Kind: DecisionLogin, Location: LoginRedirect(target.Path)}
			}
			return Decision{Kind: DecisionAllow}
		}
	}

	if user := store.User(); user != nil && !g.hasAccess(*user, target) {
		return Decision{Kind: DecisionRedirect, Location: store.LandingRoute()}
	}
	return Decision{Kind: DecisionAllow}
}

// resolveSession loads the user through fetch, then refresh, then one
// fetch retry. Returns true when a user ended up in the store.
func (g *Guard) resolveSession(ctx context.Context, store *SessionStore) bool {
	if err := store.FetchUser(ctx); err == nil {
		return true
	}
	if err := store.RefreshToken(ctx); err != nil {
		return false
	}
	return store.FetchUser(ctx) == nil
}

// hasAccess applies the capability policy to a loaded user and target.
func (g *Guard) hasAccess(user auth.User, target Route) bool {
	if user.IsSuperuser {
		return true
	}

	section, gated := g.gatedSection(target.Path)
	if !gated {
		return true
	}

	// Customers are implicitly allowed into the installations area.
	if !user.IsStaff && section == "installations" {
		return true
	}

	return user.HasCapability(g.gates[section])
}

// gatedSection returns the first path segment that names a gate, by exact
// segment identity rather than substring containment.
func (g *Guard) gatedSection(path string) (string, bool) {
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if _, ok := g.gates[segment]; ok {
			return segment, true
		}
	}
	return "", false
}

// isPublic matches the route name against the public set at dash
// boundaries, so a configured "reset-password" also covers
// "reset-password-token" but never "reset-passwords".
func (g *Guard) isPublic(target Route) bool {
	name := target.Name
	for name != "" {
		if _, ok := g.public[name]; ok {
			return true
		}
		i := strings.LastIndex(name, "-")
		if i < 0 {
			return false
		}
		name = name[:i]
	}
	return false
}

// isHomeTarget reports whether the navigation aims at the application
// shell (the /home tree).
func isHomeTarget(target Route) bool {
	if prefix, _, _ := strings.Cut(target.Name, "-"); prefix == "home" {
		return true
	}
	first := strings.SplitN(strings.Trim(target.Path, "/"), "/", 2)[0]
	return first == "home"
}

// LoginRedirect builds the login entry point carrying the originally
// requested path as a return parameter.
func LoginRedirect(from string) string {
	if from == "" {
		return auth.RouteLogin
	}
	return auth.RouteLogin + "?from=" + url.QueryEscape(from)
}
