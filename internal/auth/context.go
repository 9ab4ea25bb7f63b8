package auth

import "context"

type contextKey struct{}

// AdminContext identifies the signed-in back-office user for a request.
type AdminContext struct {
	AdminID   int64
	Username  string
	SessionID int64
}

func WithAdmin(ctx context.Context, ac AdminContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AdminContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AdminContext)
	return ac, ok
}

func AdminID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.AdminID
}

func IsAdmin(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}
