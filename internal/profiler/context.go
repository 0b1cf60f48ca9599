package profiler

import "context"

// ctxKey is the key type for storing a Session in context.
type ctxKey struct{}

// FromContext extracts the Session from context, or nil.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	return nil
}

// WithSession attaches a Session to context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}
