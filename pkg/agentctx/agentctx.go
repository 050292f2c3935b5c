// Package agentctx propagates per-request ambient values through the
// execution tree: the conversation session id and the sub-agent nesting
// depth. Both ride on context.Context, so every goroutine spawned under a
// request scope inherits them and a child scope never leaks back into its
// parent.
package agentctx

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	depthKey
)

// WithSessionID returns a context carrying the conversation session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID returns the ambient session id, or "" when unset. An empty
// session id disables per-session state such as the todo list; sub-agent
// scopes rely on that to stay isolated from the parent conversation.
func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithDepth returns a context carrying the sub-agent nesting depth.
func WithDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey, depth)
}

// Depth returns the ambient nesting depth, 0 at the top level.
func Depth(ctx context.Context) int {
	if v, ok := ctx.Value(depthKey).(int); ok {
		return v
	}
	return 0
}

// ChildScope derives the context handed to a sub-agent subtree: depth is
// incremented and the session id is cleared so the child cannot touch the
// parent session's state. The parent context is left untouched.
func ChildScope(ctx context.Context) context.Context {
	return WithSessionID(WithDepth(ctx, Depth(ctx)+1), "")
}
