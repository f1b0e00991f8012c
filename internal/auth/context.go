package auth

import "context"

type contextKey struct{}

// AuthContext is what the bearer-token middleware knows about the caller.
// Family membership is not cached here; it can change between requests.
type AuthContext struct {
	UserID  uint
	Email   string
	TokenID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) uint {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}
