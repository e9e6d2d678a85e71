// Package middleware provides request-scoped identity extraction.
package middleware

import (
	"context"
	"net/http"
)

const headerActorID = "X-Actor-ID"

type actorCtxKey struct{}

// Actor is middleware that extracts the acting user's id from the
// X-Actor-ID header and stores it in the request context. Mutating handlers
// reject requests without an actor; reads work anonymously.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(headerActorID)
		ctx := context.WithValue(r.Context(), actorCtxKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor id stored in ctx, or "" if absent.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorCtxKey{}).(string); ok {
		return actor
	}
	return ""
}
