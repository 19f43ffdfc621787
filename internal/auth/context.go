package auth

import "context"

type contextKey struct{}

// WithSession returns a context carrying the authenticated session.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFromContext returns the session placed by WithSession, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}

// EmailFromContext returns the authenticated email, or "" when the
// context carries no session.
func EmailFromContext(ctx context.Context) string {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ""
	}
	return sess.Email
}
