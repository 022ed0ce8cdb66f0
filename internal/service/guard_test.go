package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
	apperrors "github.com/europgreen/portal-gateway/internal/errors"
	mocksession "github.com/europgreen/portal-gateway/internal/mocks/session"
)

func failingProvider() *mocksession.MockIdentityProvider {
	provider := mocksession.NewMockIdentityProvider()
	provider.CurrentUserFunc = func(_ context.Context) (auth.User, error) {
		return auth.User{}, apperrors.CredentialRejected("no cookie")
	}
	provider.RefreshFunc = func(_ context.Context) error {
		return apperrors.CredentialRejected("no refresh token")
	}
	return provider
}

func TestGuardPublicRoutes(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	provider := failingProvider()
	store := newTestStore(provider, nil, nil)

	for _, target := range []Route{
		{Name: "login", Path: "/login"},
		{Name: "forgot-password", Path: "/forgot-password"},
		{Name: "reset-password-token", Path: "/reset-password/abc"},
		{Name: "print-offer-id", Path: "/print/offer/42"},
		{Name: "offers-shared-id", Path: "/offers/shared/42"},
	} {
		decision := guard.Evaluate(context.Background(), store, target)
		assert.Equal(t, DecisionAllow, decision.Kind, "route %s", target.Name)
	}

	// Public routes never touch the identity upstream.
	assert.Zero(t, provider.CurrentCalls)
	assert.Zero(t, provider.RefreshCalls)
}

func TestGuardPublicRouteMatchesAtDashBoundaries(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	provider := failingProvider()
	store := newTestStore(provider, nil, nil)

	// "reset-passwords" is not a dash-boundary extension of
	// "reset-password": this navigation goes through session resolution.
	decision := guard.Evaluate(context.Background(), store, Route{
		Name: "reset-passwords",
		Path: "/reset-passwords",
	})

	assert.Equal(t, DecisionAllow, decision.Kind)
	assert.Equal(t, 1, provider.CurrentCalls)
	assert.Equal(t, 1, provider.RefreshCalls)
}

func TestGuardUnauthenticatedHomeTarget(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	provider := failingProvider()
	store := newTestStore(provider, nil, nil)

	decision := guard.Evaluate(context.Background(), store, Route{
		Name: "home-requests",
		Path: "/home/requests",
	})

	assert.Equal(t, DecisionLogin, decision.Kind)
	assert.Equal(t, "/login?from=%2Fhome%2Frequests", decision.Location)

	// The whole chain ran: fetch, refresh, no retry after a dead refresh.
	assert.Equal(t, 1, provider.CurrentCalls)
	assert.Equal(t, 1, provider.RefreshCalls)
}

func TestGuardUnauthenticatedNonHomeTarget(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	provider := failingProvider()
	store := newTestStore(provider, nil, nil)

	decision := guard.Evaluate(context.Background(), store, Route{
		Name: "about",
		Path: "/about",
	})

	assert.Equal(t, DecisionAllow, decision.Kind)
}

func TestGuardRefreshThenRetryLoadsSession(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	provider := mocksession.NewMockIdentityProvider()
	provider.DefaultUser.UserAccess = &auth.UserAccess{Offers: true}

	fetches := 0
	provider.CurrentUserFunc = func(_ context.Context) (auth.User, error) {
		fetches++
		if fetches == 1 {
			return auth.User{}, apperrors.CredentialRejected("expired")
		}
		return provider.DefaultUser, nil
	}
	store := newTestStore(provider, nil, nil)

	decision := guard.Evaluate(context.Background(), store, Route{
		Name: "home-offers",
		Path: "/home/offers",
	})

	assert.Equal(t, DecisionAllow, decision.Kind)
	require.NotNil(t, store.User())
	assert.Equal(t, 2, provider.CurrentCalls)
	assert.Equal(t, 1, provider.RefreshCalls)
}

func TestGuardCapabilityPolicy(t *testing.T) {
	staff := func(access *auth.UserAccess) auth.User {
		return auth.User{
			ID:         "u1",
			Email:      "staff@example.com",
			Role:       auth.RoleCollaborator,
			IsActive:   true,
			IsStaff:    true,
			UserAccess: access,
		}
	}

	tests := []struct {
		name     string
		user     auth.User
		target   Route
		kind     DecisionKind
		location string
	}{
		{
			name:   "superuser enters gated sections without capabilities",
			user:   auth.User{ID: "root", IsStaff: true, IsSuperuser: true},
			target: Route{Name: "home-requests", Path: "/home/requests"},
			kind:   DecisionAllow,
		},
		{
			name:   "staff with the requests flag enters requests",
			user:   staff(&auth.UserAccess{Requests: true}),
			target: Route{Name: "home-requests", Path: "/home/requests"},
			kind:   DecisionAllow,
		},
		{
			name:     "staff without the requests flag bounces to their landing route",
			user:     staff(&auth.UserAccess{Offers: true}),
			target:   Route{Name: "home-requests", Path: "/home/requests"},
			kind:     DecisionRedirect,
			location: auth.RouteOffers,
		},
		{
			name:     "staff with no capability record bounces to account settings",
			user:     staff(nil),
			target:   Route{Name: "home-installations", Path: "/home/installations"},
			kind:     DecisionRedirect,
			location: auth.RouteAccountSettings,
		},
		{
			name:   "staff with only the offers flag enters offers",
			user:   staff(&auth.UserAccess{Offers: true}),
			target: Route{Name: "home-offers", Path: "/home/offers"},
			kind:   DecisionAllow,
		},
		{
			name:     "customer without the requests flag bounces to installations",
			user:     auth.User{ID: "c2", Role: auth.RoleCustomer, IsActive: true},
			target:   Route{Name: "home-requests", Path: "/home/requests"},
			kind:     DecisionRedirect,
			location: auth.RouteInstallations,
		},
		{
			name:   "customer enters installations without any flag",
			user:   auth.User{ID: "c1", Role: auth.RoleCustomer, IsActive: true},
			target: Route{Name: "home-installations-id", Path: "/home/installations/42"},
			kind:   DecisionAllow,
		},
		{
			name:   "ungated section needs no capability",
			user:   staff(nil),
			target: Route{Name: "home-settings-account", Path: "/home/settings/account"},
			kind:   DecisionAllow,
		},
		{
			name:   "gate matches whole segments only",
			user:   staff(nil),
			target: Route{Name: "home-offerings", Path: "/home/offerings"},
			kind:   DecisionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(GuardConfig{})
			provider := mocksession.NewMockIdentityProvider()
			provider.DefaultUser = tt.user
			store := newTestStore(provider, nil, nil)
			require.NoError(t, store.FetchUser(context.Background()))

			decision := guard.Evaluate(context.Background(), store, tt.target)

			assert.Equal(t, tt.kind, decision.Kind)
			if tt.location != "" {
				assert.Equal(t, tt.location, decision.Location)
			}
		})
	}
}

func TestGuardCustomConfig(t *testing.T) {
	guard := NewGuard(GuardConfig{
		PublicRoutes: []string{"status"},
		Gates: map[string]auth.Capability{
			"procedures": auth.CapabilityAdministrativeProcedures,
		},
	})
	provider := mocksession.NewMockIdentityProvider()
	provider.DefaultUser.UserAccess = &auth.UserAccess{AdministrativeProcedures: true}
	store := newTestStore(provider, nil, nil)
	require.NoError(t, store.FetchUser(context.Background()))

	assert.Equal(t, DecisionAllow, guard.Evaluate(context.Background(), store, Route{
		Name: "status-page", Path: "/status",
	}).Kind)

	assert.Equal(t, DecisionAllow, guard.Evaluate(context.Background(), store, Route{
		Name: "home-procedures", Path: "/home/procedures",
	}).Kind)

	// The default login gate no longer applies, so /login is guarded but
	// the loaded user passes it.
	assert.Equal(t, DecisionAllow, guard.Evaluate(context.Background(), store, Route{
		Name: "login", Path: "/login",
	}).Kind)
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login", LoginRedirect(""))
	assert.Equal(t, "/login?from=%2Fhome%2Foffers%2F7", LoginRedirect("/home/offers/7"))
}

func TestGuardAlreadyLoadedUserSkipsResolution(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	provider := mocksession.NewMockIdentityProvider()
	store := newTestStore(provider, nil, nil)
	require.NoError(t, store.FetchUser(context.Background()))
	require.Equal(t, 1, provider.CurrentCalls)

	decision := guard.Evaluate(context.Background(), store, Route{
		Name: "home-installations",
		Path: "/home/installations",
	})

	assert.Equal(t, DecisionAllow, decision.Kind)
	assert.Equal(t, 1, provider.CurrentCalls)
	assert.Zero(t, provider.RefreshCalls)
}
