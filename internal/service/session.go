package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
	apperrors "github.com/europgreen/portal-gateway/internal/errors"
	"github.com/europgreen/portal-gateway/internal/ports"
)

// Session faults. The guard and the call wrapper branch on these; the
// underlying cause is logged, not propagated.
var (
	// ErrNoSession means the profile fetch failed: there is no active
	// session behind the ambient credential.
	ErrNoSession = errors.New("no active session")
	// ErrSessionUnrecoverable means the credential could not be renewed
	// and the visitor must re-authenticate.
	ErrSessionUnrecoverable = errors.New("session unrecoverable: re-authentication required")
)

// User-facing login messages. The portal's audience is French.
const (
	msgLoginSuccess      = "Connecté avec succès"
	msgInvalidCreds      = "Identifiants de connexion invalides."
	msgServerError       = "Erreur du serveur, réessayez plus tard."
	msgConnectivityError = "Problème de connexion au serveur."
)

// LoginResult is the discriminated outcome of a login attempt. Login never
// propagates a fault past its boundary; callers always get a result value.
type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	// SessionID is the gateway session this store belongs to.
	SessionID string
	// Provider is the upstream identity client carrying this session's
	// ambient credential.
	Provider ports.IdentityProvider
	// Snapshots persists the session across restarts. Optional.
	Snapshots ports.SnapshotStore
	// Audit records session lifecycle events. Optional.
	Audit ports.AuditLog
	// TTL bounds the persisted snapshot lifetime. Defaults to 24h.
	TTL    time.Duration
	Logger *slog.Logger
}

// SessionStore is the single source of truth for "who is signed in" on one
// gateway session. It owns the sole User cell; nothing else writes it. All
// operations are safe for concurrent use, and concurrent refresh attempts
// collapse into a single in-flight upstream call.
type SessionStore struct {
	sessionID string
	provider  ports.IdentityProvider
	snapshots ports.SnapshotStore
	audit     ports.AuditLog
	ttl       time.Duration
	logger    *slog.Logger

	mu   sync.RWMutex
	user *auth.User

	refresh singleflight.Group
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		sessionID: opts.SessionID,
		provider:  opts.Provider,
		snapshots: opts.Snapshots,
		audit:     opts.Audit,
		ttl:       ttl,
		logger:    logger,
	}
}

// SessionID returns the owning gateway session identifier.
func (s *SessionStore) SessionID() string { return s.sessionID }

// User returns a copy of the current user, or nil when anonymous.
func (s *SessionStore) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	if s.user.UserAccess != nil {
		access := *s.user.UserAccess
		u.UserAccess = &access
	}
	return &u
}

// Login submits credentials to the identity endpoint. On success the
// returned profile replaces the stored user. On failure the result carries
// a user-facing message classified by cause; no fault escapes.
func (s *SessionStore) Login(ctx context.Context, creds ports.Credentials) LoginResult {
	user, err := s.provider.Login(ctx, creds)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed",
			slog.String("session_id", s.sessionID),
			slog.String("email", creds.Email),
			slog.Any("error", err),
		)
		s.recordAudit(ctx, ports.AuditLoginFailure, creds.Email, err.Error())
		return LoginResult{Success: false, Message: loginFailureMessage(err)}
	}

	s.setUser(ctx, &user)
	s.recordAudit(ctx, ports.AuditLoginSuccess, user.Email, "")
	return LoginResult{Success: true, Message: msgLoginSuccess}
}

// loginFailureMessage maps a login failure to the user-facing message:
// server errors ask to retry later, connectivity problems name the
// connection, everything else reads as invalid credentials.
func loginFailureMessage(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeServer:
		return msgServerError
	case apperrors.ErrCodeConnectivity:
		return msgConnectivityError
	default:
		return msgInvalidCreds
	}
}

// FetchUser retrieves the current session's profile using the ambient
// credential. On success the stored user is replaced wholesale; on any
// failure it is cleared and ErrNoSession is returned.
func (s *SessionStore) FetchUser(ctx context.Context) error {
	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		s.clearUser(ctx)
		return fmt.Errorf("%w: %s", ErrNoSession, apperrors.CodeOf(err))
	}
	s.setUser(ctx, &user)
	return nil
}

// RefreshToken silently renews the ambient credential. Concurrent callers
// share one in-flight upstream refresh and all observe its outcome; the
// upstream call runs detached from any single caller's cancellation so one
// aborted request cannot fail the others. On failure the stored user is
// cleared and ErrSessionUnrecoverable is returned.
func (s *SessionStore) RefreshToken(ctx context.Context) error {
	refreshCtx := context.WithoutCancel(ctx)
	_, err, _ := s.refresh.Do("refresh", func() (any, error) {
		return nil, s.provider.Refresh(refreshCtx)
	})
	if err != nil {
		email := s.currentEmail()
		s.clearUser(ctx)
		s.recordAudit(ctx, ports.AuditRefreshFailure, email, err.Error())
		return fmt.Errorf("%w: %s", ErrSessionUnrecoverable, apperrors.CodeOf(err))
	}

	// The rotated credential must outlive this process.
	s.persistSnapshot(ctx)
	return nil
}

// Logout invalidates the session upstream and unconditionally clears the
// stored user, whether or not the upstream call succeeded.
func (s *SessionStore) Logout(ctx context.Context) {
	email := s.currentEmail()
	if err := s.provider.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "upstream logout failed",
			slog.String("session_id", s.sessionID),
			slog.Any("error", err),
		)
	}
	s.clearUser(ctx)
	s.recordAudit(ctx, ports.AuditLogout, email, "")
}

// Resources exposes the upstream data surface bound to this session's
// ambient credential, when the provider supports forwarding.
func (s *SessionStore) Resources() (ports.ResourceFetcher, bool) {
	fetcher, ok := s.provider.(ports.ResourceFetcher)
	return fetcher, ok
}

// LandingRoute computes the canonical destination for the current user.
func (s *SessionStore) LandingRoute() string {
	return auth.LandingRoute(s.User())
}

// hydrate seeds the cell and the provider credential from a persisted
// snapshot. Called by the manager before first use; never after.
func (s *SessionStore) hydrate(snap ports.SessionSnapshot) {
	if persister, ok := s.provider.(ports.CredentialPersister); ok {
		persister.RestoreCredentials(snap.Credentials)
	}
	s.mu.Lock()
	s.user = snap.User
	s.mu.Unlock()
}

func (s *SessionStore) setUser(ctx context.Context, u *auth.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.persistSnapshot(ctx)
}

func (s *SessionStore) clearUser(ctx context.Context) {
	s.mu.Lock()
	hadUser := s.user != nil
	s.user = nil
	s.mu.Unlock()

	if s.snapshots == nil || s.sessionID == "" {
		return
	}
	if err := s.snapshots.Delete(ctx, s.sessionID); err != nil {
		s.logger.WarnContext(ctx, "delete session snapshot failed",
			slog.String("session_id", s.sessionID),
			slog.Bool("had_user", hadUser),
			slog.Any("error", err),
		)
	}
}

// persistSnapshot writes the current cell and credential to the registry.
// Persistence failures are logged, never propagated: the in-process cell
// stays the source of truth.
func (s *SessionStore) persistSnapshot(ctx context.Context) {
	if s.snapshots == nil || s.sessionID == "" {
		return
	}

	snap := ports.SessionSnapshot{
		ID:        s.sessionID,
		User:      s.User(),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if persister, ok := s.provider.(ports.CredentialPersister); ok {
		snap.Credentials = persister.ExportCredentials()
	}

	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "persist session snapshot failed",
			slog.String("session_id", s.sessionID),
			slog.Any("error", err),
		)
	}
}

func (s *SessionStore) currentEmail() string {
	if u := s.User(); u != nil {
		return u.Email
	}
	return ""
}

func (s *SessionStore) recordAudit(ctx context.Context, kind, email, detail string) {
	if s.audit == nil {
		return
	}
	event := ports.AuditEvent{
		SessionID:  s.sessionID,
		Email:      email,
		Kind:       kind,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record audit event failed",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}
