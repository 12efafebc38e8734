package common

import "context"

type ctxKey string

const (
	userIDKey       ctxKey = "auth/user-id"
	channelKey      ctxKey = "auth/channel"
	routePatternKey ctxKey = "http/route-pattern"
)

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithChannel stores the resolved sales channel tag on the context.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// Channel extracts the sales channel tag from the context if present.
func Channel(ctx context.Context) (string, bool) {
	v := ctx.Value(channelKey)
	if v == nil {
		return "", false
	}
	ch, ok := v.(string)
	return ch, ok
}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey, pattern)
}

// RoutePattern extracts the matched router pattern from the context if present.
func RoutePattern(ctx context.Context) (string, bool) {
	v := ctx.Value(routePatternKey)
	if v == nil {
		return "", false
	}
	pattern, ok := v.(string)
	return pattern, ok
}
