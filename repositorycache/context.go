package repositorycache

import "context"

type freshReadContextKey struct{}

// WithFreshRead makes reads through ctx skip the cache tiers and go to the
// base repository. Results are still written back to the tiers.
func WithFreshRead(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, freshReadContextKey{}, true)
}

func freshRead(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	fresh, _ := ctx.Value(freshReadContextKey{}).(bool)
	return fresh
}
