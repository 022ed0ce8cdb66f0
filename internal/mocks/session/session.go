package session

// Package session contains simple hand-written test doubles for the
// session ports. These are lightweight and suitable for unit tests without
// codegen.

import (
	"context"
	"sync"
	"time"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
	"github.com/europgreen/portal-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider    = (*MockIdentityProvider)(nil)
	_ ports.CredentialPersister = (*MockIdentityProvider)(nil)
	_ ports.ResourceFetcher     = (*MockIdentityProvider)(nil)
	_ ports.SnapshotStore       = (*MemorySnapshotStore)(nil)
	_ ports.AuditLog            = (*MemoryAuditLog)(nil)
)

// MockIdentityProvider simulates the upstream identity API with
// overridable behavior and call counting.
type MockIdentityProvider struct {
	LoginFunc         func(ctx context.Context, creds ports.Credentials) (auth.User, error)
	CurrentUserFunc   func(ctx context.Context) (auth.User, error)
	RefreshFunc       func(ctx context.Context) error
	LogoutFunc        func(ctx context.Context) error
	FetchResourceFunc func(ctx context.Context, req ports.ResourceRequest) (ports.ResourceResponse, error)

	// DefaultUser is returned by Login and CurrentUser when no override
	// is set.
	DefaultUser auth.User

	mu            sync.Mutex
	LoginCalls    int
	CurrentCalls  int
	RefreshCalls  int
	LogoutCalls   int
	ResourceCalls int
	Credentials   ports.CredentialSnapshot
}

// NewMockIdentityProvider creates a provider with a sensible staff user.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		DefaultUser: auth.User{
			ID:        "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			Role:      auth.RoleCollaborator,
			IsActive:  true,
			IsStaff:   true,
			UserAccess: &auth.UserAccess{
				Installation: true,
			},
		},
	}
}

func (m *MockIdentityProvider) Login(ctx context.Context, creds ports.Credentials) (auth.User, error) {
	m.count(&m.LoginCalls)
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return m.DefaultUser, nil
}

func (m *MockIdentityProvider) CurrentUser(ctx context.Context) (auth.User, error) {
	m.count(&m.CurrentCalls)
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return m.DefaultUser, nil
}

func (m *MockIdentityProvider) Refresh(ctx context.Context) error {
	m.count(&m.RefreshCalls)
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

func (m *MockIdentityProvider) Logout(ctx context.Context) error {
	m.count(&m.LogoutCalls)
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockIdentityProvider) FetchResource(ctx context.Context, req ports.ResourceRequest) (ports.ResourceResponse, error) {
	m.count(&m.ResourceCalls)
	if m.FetchResourceFunc != nil {
		return m.FetchResourceFunc(ctx, req)
	}
	return ports.ResourceResponse{Status: 200, Body: []byte(`{}`)}, nil
}

func (m *MockIdentityProvider) ExportCredentials() ports.CredentialSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Credentials) == 0 {
		return nil
	}
	out := make(ports.CredentialSnapshot, len(m.Credentials))
	for k, v := range m.Credentials {
		out[k] = v
	}
	return out
}

func (m *MockIdentityProvider) RestoreCredentials(snapshot ports.CredentialSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credentials = snapshot
}

func (m *MockIdentityProvider) count(field *int) {
	m.mu.Lock()
	*field++
	m.mu.Unlock()
}

// MemorySnapshotStore is an in-memory ports.SnapshotStore.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]ports.SessionSnapshot

	SaveErr   error
	GetErr    error
	DeleteErr error
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snaps: make(map[string]ports.SessionSnapshot)}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snap ports.SessionSnapshot) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = snap
	return nil
}

func (s *MemorySnapshotStore) Get(_ context.Context, id string) (ports.SessionSnapshot, error) {
	if s.GetErr != nil {
		return ports.SessionSnapshot{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok || time.Now().After(snap.ExpiresAt) {
		return ports.SessionSnapshot{}, ports.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *MemorySnapshotStore) Delete(_ context.Context, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

// MemoryAuditLog collects audit events in memory.
type MemoryAuditLog struct {
	mu     sync.Mutex
	events []ports.AuditEvent

	RecordErr error
}

// NewMemoryAuditLog creates an empty audit log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (l *MemoryAuditLog) Record(_ context.Context, event ports.AuditEvent) error {
	if l.RecordErr != nil {
		return l.RecordErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (l *MemoryAuditLog) Events() []ports.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.AuditEvent, len(l.events))
	copy(out, l.events)
	return out
}
