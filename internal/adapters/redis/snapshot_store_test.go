package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
	"github.com/europgreen/portal-gateway/internal/ports"
	"github.com/europgreen/portal-gateway/internal/testutil"
)

func TestSnapshotStore_SaveAndGet(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	store := NewSnapshotStore(client)
	ctx := context.Background()

	snap := ports.SessionSnapshot{
		ID: "sess-1",
		User: &auth.User{
			ID:      "u-1",
			Email:   "user@example.com",
			Role:    auth.RoleCollaborator,
			IsStaff: true,
			UserAccess: &auth.UserAccess{
				Offers: true,
			},
		},
		Credentials: ports.CredentialSnapshot{"access": "tok-a", "refresh": "tok-r"},
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}

	require.NoError(t, store.Save(ctx, snap))

	retrieved, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, retrieved.ID)
	require.NotNil(t, retrieved.User)
	assert.Equal(t, "user@example.com", retrieved.User.Email)
	require.NotNil(t, retrieved.User.UserAccess)
	assert.True(t, retrieved.User.UserAccess.Offers)
	assert.Equal(t, "tok-r", string(retrieved.Credentials["refresh"]))
	assert.WithinDuration(t, snap.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSnapshotStore_GetNonExistent(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	store := NewSnapshotStore(client)
	_, err := store.Get(context.Background(), "non-existent")
	assert.Equal(t, ErrNotFound, err)
}

func TestSnapshotStore_EmptyID(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	store := NewSnapshotStore(client)
	ctx := context.Background()

	require.Error(t, store.Save(ctx, ports.SessionSnapshot{ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := store.Get(ctx, "")
	assert.Equal(t, ErrNotFound, err)

	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSnapshotStore_RejectsExpired(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	store := NewSnapshotStore(client)
	err := store.Save(context.Background(), ports.SessionSnapshot{
		ID:        "sess-expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.Error(t, err)
}

func TestSnapshotStore_Delete(t *testing.T) {
	client := testutil.SetupTestRedis(t)

	store := NewSnapshotStoreWithPrefix(client, "gw:")
	ctx := context.Background()

	snap := ports.SessionSnapshot{ID: "sess-del", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, snap))
	require.NoError(t, store.Delete(ctx, "sess-del"))

	_, err := store.Get(ctx, "sess-del")
	assert.Equal(t, ErrNotFound, err)
}
