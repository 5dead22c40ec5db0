// Package request holds the issuer's HTTP middleware chain. Every rejection it
// writes uses the same {error, error_description} envelope as the handlers.
package request

import (
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/google/uuid"

	dErrors "entangledu/pkg/domain-errors"
	"entangledu/pkg/platform/httputil"
	"entangledu/pkg/requestcontext"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// MaxRequestIDLength bounds client-supplied request ids.
const MaxRequestIDLength = 128

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// RequestID keeps a well-formed client request id and otherwise mints a UUID.
// The id goes into the context and back out on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if len(id) == 0 || len(id) > MaxRequestIDLength || !requestIDPattern.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

// Recovery converts a handler panic into an internal_error response and logs the stack.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				logger.ErrorContext(ctx, "handler panicked",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
					"stack", string(debug.Stack()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, ""))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
