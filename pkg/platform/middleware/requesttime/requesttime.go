// Package requesttime pins one clock reading per HTTP request, so the
// issued-at instant, the signed payload and the mint log entry agree.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type pinnedKey struct{}

// Clock is a time source.
type Clock func() time.Time

// Middleware pins the wall clock at the start of each request.
func Middleware(next http.Handler) http.Handler {
	return Capture(time.Now)(next)
}

// Capture returns middleware that pins clock's reading at the start of each
// request.
func Capture(clock Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithTime(r.Context(), clock())))
		})
	}
}

// WithTime pins t for ctx, replacing any earlier pin.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, pinnedKey{}, t)
}

// Now returns the instant pinned on ctx. Outside a request it reads the
// wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(pinnedKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
