package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/europgreen/portal-gateway/internal/ports"
)

// ProviderFactory builds a fresh identity client. Each gateway session
// gets its own client so ambient credentials never cross sessions.
type ProviderFactory func() (ports.IdentityProvider, error)

// ManagerOptions groups dependencies for Manager.
type ManagerOptions struct {
	NewProvider ProviderFactory
	Snapshots   ports.SnapshotStore
	Audit       ports.AuditLog
	TTL         time.Duration
	Logger      *slog.Logger
}

// Manager maps gateway session IDs to their session stores, building them
// lazily and rehydrating from the snapshot registry after a restart.
type Manager struct {
	newProvider ProviderFactory
	snapshots   ports.SnapshotStore
	audit       ports.AuditLog
	ttl         time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	stores map[string]*SessionStore
}

// NewManager constructs a Manager.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		newProvider: opts.NewProvider,
		snapshots:   opts.Snapshots,
		audit:       opts.Audit,
		ttl:         opts.TTL,
		logger:      logger,
		stores:      make(map[string]*SessionStore),
	}
}

// NewSessionID mints an opaque gateway session identifier.
func (m *Manager) NewSessionID() string { return uuid.NewString() }

// Resolve returns the store for a gateway session, creating and hydrating
// it on first contact.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (*SessionStore, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[sessionID]; ok {
		return store, nil
	}

	provider, err := m.newProvider()
	if err != nil {
		return nil, fmt.Errorf("build identity provider: %w", err)
	}

	store := NewSessionStore(SessionStoreOptions{
		SessionID: sessionID,
		Provider:  provider,
		Snapshots: m.snapshots,
		Audit:     m.audit,
		TTL:       m.ttl,
		Logger:    m.logger,
	})

	if m.snapshots != nil {
		snap, getErr := m.snapshots.Get(ctx, sessionID)
		switch {
		case getErr == nil:
			store.hydrate(snap)
		case errors.Is(getErr, ports.ErrSnapshotNotFound):
			// First contact or expired record; the guard's fetch/refresh
			// chain takes it from here.
		default:
			m.logger.WarnContext(ctx, "load session snapshot failed",
				slog.String("session_id", sessionID),
				slog.Any("error", getErr),
			)
		}
	}

	m.stores[sessionID] = store
	return store, nil
}

// Drop forgets a gateway session (after logout).
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}
