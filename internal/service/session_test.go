package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
	apperrors "github.com/europgreen/portal-gateway/internal/errors"
	mocksession "github.com/europgreen/portal-gateway/internal/mocks/session"
	"github.com/europgreen/portal-gateway/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(provider ports.IdentityProvider, snaps ports.SnapshotStore, audit ports.AuditLog) *SessionStore {
	return NewSessionStore(SessionStoreOptions{
		SessionID: "sess-1",
		Provider:  provider,
		Snapshots: snaps,
		Audit:     audit,
		TTL:       time.Hour,
		Logger:    discardLogger(),
	})
}

func TestSessionStoreLoginSuccess(t *testing.T) {
	provider := mocksession.NewMockIdentityProvider()
	snaps := mocksession.NewMemorySnapshotStore()
	audit := mocksession.NewMemoryAuditLog()
	store := newTestStore(provider, snaps, audit)

	result := store.Login(context.Background(), ports.Credentials{Email: "mock.user@example.com", Password: "secret"})

	assert.True(t, result.Success)
	assert.Equal(t, "Connecté avec succès", result.Message)

	user := store.User()
	require.NotNil(t, user)
	assert.Equal(t, "mock.user@example.com", user.Email)

	// The session survives a restart via the snapshot registry.
	snap, err := snaps.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, snap.User)
	assert.Equal(t, "mock.user@example.com", snap.User.Email)

	events := audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ports.AuditLoginSuccess, events[0].Kind)
	assert.Equal(t, "mock.user@example.com", events[0].Email)
}

func TestSessionStoreLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "invalid credentials",
			err:     apperrors.Validation("upstream rejected the form"),
			message: "Identifiants de connexion invalides.",
		},
		{
			name:    "credential rejection reads as invalid credentials",
			err:     apperrors.CredentialRejected("bad password"),
			message: "Identifiants de connexion invalides.",
		},
		{
			name:    "server fault asks to retry later",
			err:     apperrors.Server("upstream returned 503"),
			message: "Erreur du serveur, réessayez plus tard.",
		},
		{
			name:    "connectivity fault names the connection",
			err:     apperrors.Connectivity("dial tcp refused"),
			message: "Problème de connexion au serveur.",
		},
		{
			name:    "unclassified fault reads as invalid credentials",
			err:     errors.New("boom"),
			message: "Identifiants de connexion invalides.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mocksession.NewMockIdentityProvider()
			provider.LoginFunc = func(_ context.Context, _ ports.Credentials) (auth.User, error) {
				return auth.User{}, tt.err
			}
			audit := mocksession.NewMemoryAuditLog()
			store := newTestStore(provider, nil, audit)

			result := store.Login(context.Background(), ports.Credentials{Email: "a@b.fr", Password: "x"})

			assert.False(t, result.Success)
			assert.Equal(t, tt.message, result.Message)
			assert.Nil(t, store.User())

			events := audit.Events()
			require.Len(t, events, 1)
			assert.Equal(t, ports.AuditLoginFailure, events[0].Kind)
		})
	}
}

func TestSessionStoreLoginSurvivesAuditFailure(t *testing.T) {
	provider := mocksession.NewMockIdentityProvider()
	audit := mocksession.NewMemoryAuditLog()
	audit.RecordErr = errors.New("insert failed")
	store := newTestStore(provider, nil, audit)

	result := store.Login(context.Background(), ports.Credentials{Email: "a@b.fr", Password: "x"})

	assert.True(t, result.Success)
	require.NotNil(t, store.User())
}

func TestSessionStoreFetchUser(t *testing.T) {
	t.Run("success replaces stored user", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		store := newTestStore(provider, nil, nil)

		require.NoError(t, store.FetchUser(context.Background()))
		require.NotNil(t, store.User())
		assert.Equal(t, "mock-user-1", store.User().ID)
	})

	t.Run("failure clears stored user", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		snaps := mocksession.NewMemorySnapshotStore()
		store := newTestStore(provider, snaps, nil)

		require.NoError(t, store.FetchUser(context.Background()))
		require.NotNil(t, store.User())

		provider.CurrentUserFunc = func(_ context.Context) (auth.User, error) {
			return auth.User{}, apperrors.CredentialRejected("expired")
		}

		err := store.FetchUser(context.Background())
		require.ErrorIs(t, err, ErrNoSession)
		assert.Nil(t, store.User())

		_, getErr := snaps.Get(context.Background(), "sess-1")
		assert.ErrorIs(t, getErr, ports.ErrSnapshotNotFound)
	})
}

func TestSessionStoreRefreshToken(t *testing.T) {
	t.Run("success persists the rotated credential", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		provider.Credentials = ports.CredentialSnapshot{"refresh_token": "rotated"}
		snaps := mocksession.NewMemorySnapshotStore()
		store := newTestStore(provider, snaps, nil)
		require.NoError(t, store.FetchUser(context.Background()))

		require.NoError(t, store.RefreshToken(context.Background()))

		snap, err := snaps.Get(context.Background(), "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "rotated", snap.Credentials["refresh_token"])
	})

	t.Run("failure clears the user and is unrecoverable", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		provider.RefreshFunc = func(_ context.Context) error {
			return apperrors.CredentialRejected("refresh token expired")
		}
		audit := mocksession.NewMemoryAuditLog()
		store := newTestStore(provider, nil, audit)
		require.NoError(t, store.FetchUser(context.Background()))

		err := store.RefreshToken(context.Background())
		require.ErrorIs(t, err, ErrSessionUnrecoverable)
		assert.Nil(t, store.User())

		events := audit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, ports.AuditRefreshFailure, events[0].Kind)
		assert.Equal(t, "mock.user@example.com", events[0].Email)
	})

	t.Run("refresh outlives the triggering caller's cancellation", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		var upstreamErr error
		provider.RefreshFunc = func(ctx context.Context) error {
			upstreamErr = ctx.Err()
			return nil
		}
		store := newTestStore(provider, nil, nil)
		require.NoError(t, store.FetchUser(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, store.RefreshToken(ctx))
		assert.NoError(t, upstreamErr)
		assert.NotNil(t, store.User())
	})

	t.Run("concurrent callers share one upstream refresh", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once

		provider := mocksession.NewMockIdentityProvider()
		provider.RefreshFunc = func(_ context.Context) error {
			once.Do(func() { close(entered) })
			<-release
			return nil
		}
		store := newTestStore(provider, nil, nil)

		var wg sync.WaitGroup
		results := make(chan error, 5)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.RefreshToken(context.Background())
		}()
		<-entered

		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- store.RefreshToken(context.Background())
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()
		close(results)

		for err := range results {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, provider.RefreshCalls)
	})
}

func TestSessionStoreLogout(t *testing.T) {
	t.Run("clears the user even when upstream fails", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		provider.LogoutFunc = func(_ context.Context) error {
			return apperrors.Server("upstream returned 500")
		}
		snaps := mocksession.NewMemorySnapshotStore()
		audit := mocksession.NewMemoryAuditLog()
		store := newTestStore(provider, snaps, audit)
		require.NoError(t, store.FetchUser(context.Background()))

		store.Logout(context.Background())

		assert.Nil(t, store.User())
		_, getErr := snaps.Get(context.Background(), "sess-1")
		assert.ErrorIs(t, getErr, ports.ErrSnapshotNotFound)

		events := audit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, ports.AuditLogout, events[0].Kind)
		assert.Equal(t, "mock.user@example.com", events[0].Email)
	})

	t.Run("anonymous logout is a no-op upstream of the clear", func(t *testing.T) {
		provider := mocksession.NewMockIdentityProvider()
		store := newTestStore(provider, nil, nil)

		store.Logout(context.Background())

		assert.Nil(t, store.User())
		assert.Equal(t, 1, provider.LogoutCalls)
	})
}

func TestSessionStoreUserReturnsCopy(t *testing.T) {
	provider := mocksession.NewMockIdentityProvider()
	store := newTestStore(provider, nil, nil)
	require.NoError(t, store.FetchUser(context.Background()))

	first := store.User()
	require.NotNil(t, first)
	first.Email = "tampered@example.com"
	first.UserAccess.Installation = false

	second := store.User()
	assert.Equal(t, "mock.user@example.com", second.Email)
	assert.True(t, second.UserAccess.Installation)
}

func TestSessionStoreLandingRoute(t *testing.T) {
	provider := mocksession.NewMockIdentityProvider()
	store := newTestStore(provider, nil, nil)

	assert.Equal(t, auth.RouteLogin, store.LandingRoute())

	require.NoError(t, store.FetchUser(context.Background()))
	assert.Equal(t, auth.RouteInstallations, store.LandingRoute())
}
