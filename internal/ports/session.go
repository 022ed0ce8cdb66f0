package ports

// Package ports defines interfaces (hexagonal ports) for the session layer.
// Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"errors"
	"time"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
)

// Credentials carries a login attempt's inputs.
type Credentials struct {
	Email    string
	Password string
}

// CredentialSnapshot is the exported form of the ambient credential: the
// upstream cookie values keyed by cookie name. Opaque to everything except
// the identity transport.
type CredentialSnapshot map[string]string

// IdentityProvider talks to the upstream identity endpoints. The ambient
// credential (session cookie, refresh cookie) is attached by the transport;
// calling code never sees it.
type IdentityProvider interface {
	// Login submits credentials and returns the authenticated profile.
	Login(ctx context.Context, creds Credentials) (auth.User, error)

	// CurrentUser fetches the profile for the ambient credential.
	CurrentUser(ctx context.Context) (auth.User, error)

	// Refresh silently renews the ambient credential. No profile is
	// returned.
	Refresh(ctx context.Context) error

	// Logout invalidates the ambient credential upstream.
	Logout(ctx context.Context) error
}

// CredentialPersister is implemented by identity providers whose ambient
// credential can be exported and restored across process restarts.
type CredentialPersister interface {
	ExportCredentials() CredentialSnapshot
	RestoreCredentials(snapshot CredentialSnapshot)
}

// SessionSnapshot is the gateway's persisted record for one browser
// session.
type SessionSnapshot struct {
	ID          string             `json:"id"`
	User        *auth.User         `json:"user,omitempty"`
	Credentials CredentialSnapshot `json:"credentials,omitempty"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// ErrSnapshotNotFound is returned by SnapshotStore.Get when no record
// exists for the given session ID.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// SnapshotStore persists and retrieves session snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap SessionSnapshot) error
	Get(ctx context.Context, id string) (SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

// Audit event kinds recorded for the session lifecycle.
const (
	AuditLoginSuccess   = "login_success"
	AuditLoginFailure   = "login_failure"
	AuditRefreshFailure = "refresh_failure"
	AuditLogout         = "logout"
)

// AuditEvent is one session lifecycle occurrence worth keeping.
type AuditEvent struct {
	ID         string
	SessionID  string
	Email      string
	Kind       string
	Detail     string
	OccurredAt time.Time
}

// AuditLog records session lifecycle events. Implementations must be safe
// to call from auth paths; a failed Record never fails the auth operation.
type AuditLog interface {
	Record(ctx context.Context, event AuditEvent) error
}
