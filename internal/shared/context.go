package shared

import "context"

type adminSessionKey struct{}
type memberSessionKey struct{}

// ContextWithSession stores a session in the context under its kind.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	if sess == nil {
		return ctx
	}
	switch sess.kind {
	case KindAdmin:
		return context.WithValue(ctx, adminSessionKey{}, sess)
	case KindMember:
		return context.WithValue(ctx, memberSessionKey{}, sess)
	}
	return ctx
}

// AdminSessionFromContext extracts the administrator session, if any.
func AdminSessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(adminSessionKey{}).(*Session)
	return sess
}

// MemberSessionFromContext extracts the member session, if any.
func MemberSessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(memberSessionKey{}).(*Session)
	return sess
}

// SessionFromContext returns the session for the requested kind.
func SessionFromContext(ctx context.Context, kind SessionKind) *Session {
	if kind == KindAdmin {
		return AdminSessionFromContext(ctx)
	}
	return MemberSessionFromContext(ctx)
}
