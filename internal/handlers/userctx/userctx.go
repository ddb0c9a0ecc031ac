// Package userctx carries the account that authenticated a request
package userctx

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/nkiryanov/sims/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	trackKey
)

// Create a new context with the user
// Contexts derived from Track see the user too
func New(ctx context.Context, u models.User) context.Context {
	if slot, ok := ctx.Value(trackKey).(*atomic.Pointer[models.User]); ok {
		slot.Store(&u)
	}
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// HasRole reports whether the request is authenticated with one of roles
func HasRole(ctx context.Context, roles ...models.Role) bool {
	u, ok := FromContext(ctx)
	return ok && slices.Contains(roles, u.Role)
}

// Track lets an outer handler learn which user the inner chain authenticated.
// The returned func reports the user once the request has been served
func Track(ctx context.Context) (context.Context, func() (models.User, bool)) {
	slot := new(atomic.Pointer[models.User])
	ctx = context.WithValue(ctx, trackKey, slot)

	return ctx, func() (models.User, bool) {
		u := slot.Load()
		if u == nil {
			return models.User{}, false
		}
		return *u, true
	}
}
