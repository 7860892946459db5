package conversation

// This file carries the active thread ID through context.Context so that
// code below RunTurn — tool dispatch, the call Observer, HTTP handlers —
// can resolve which conversation thread a request belongs to without
// threading an extra parameter through every signature.

import "context"

// ctxKeyType is an unexported, unique type used as the map key in
// context.WithValue. A distinct type avoids collisions with keys defined by
// external packages.
type ctxKeyType struct{}

var ctxKey = ctxKeyType{}

// WithID returns a new context that carries the supplied thread ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey, id)
}

// ID extracts the thread ID from ctx. When ctx does not carry one the empty
// string is returned.
func ID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey).(string)
	return v
}
