package library

import (
	"context"
)

var callerCtxKey = &contextKey{"caller"}

type contextKey struct {
	name string
}

// WithCaller sets the Caller in the given context
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey, caller)
}

// CallerFromContext finds the caller in the context. Missing callers are
// anonymous.
func CallerFromContext(ctx context.Context) Caller {
	if ctx == nil {
		return Anonymous()
	}
	if caller, ok := ctx.Value(callerCtxKey).(Caller); ok {
		return caller
	}
	return Anonymous()
}
