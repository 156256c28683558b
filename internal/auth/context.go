package auth

import "context"

// Identity is the verified caller attached to a request context.
type Identity struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Role     string `json:"role"`
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, userID, deviceID, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Identity{UserID: userID, DeviceID: deviceID, Role: role})
}

// IdentityFrom returns the caller identity. ok is false for unauthenticated contexts.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
