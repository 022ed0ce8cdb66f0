package httpx

import (
	"context"

	"github.com/europgreen/portal-gateway/internal/service"
)

// storeKey is an unexported context key type for the session store.
type storeKey struct{}

// SetStoreInContext attaches the resolved session store to the context.
func SetStoreInContext(ctx context.Context, store *service.SessionStore) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// StoreFromContext returns the session store attached by the session
// middleware, or nil when the middleware did not run.
func StoreFromContext(ctx context.Context) *service.SessionStore {
	store, _ := ctx.Value(storeKey{}).(*service.SessionStore)
	return store
}
