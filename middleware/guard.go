package middleware

import (
	"context"
	"net/http"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/guard"
)

type resultContextKey struct{}

// ResultFromContext returns the guard result recorded for the request.
func ResultFromContext(ctx context.Context) (guard.Result, bool) {
	res, ok := ctx.Value(resultContextKey{}).(guard.Result)
	return res, ok
}

// Option tunes how a guard middleware answers rejected requests.
type Option func(*options)

type options struct {
	unauthorizedStatus int
}

// WithUnauthorizedStatus makes the middleware answer RedirectToLogin with
// status instead of a redirect. API mounts use 401.
func WithUnauthorizedStatus(status int) Option {
	return func(o *options) { o.unauthorizedStatus = status }
}

// Guard checks every request path against the console route table.
func Guard(console *goAccess.Console, opts ...Option) func(http.Handler) http.Handler {
	return enforce(console, func(r *http.Request) guard.Result {
		_, res := console.CheckPath(r.Context(), r.URL.Path)
		return res
	}, opts)
}

// RequireAny admits requests from sessions holding at least one of codes.
func RequireAny(console *goAccess.Console, codes []string, opts ...Option) func(http.Handler) http.Handler {
	return enforce(console, func(r *http.Request) guard.Result {
		return console.Check(r.Context(), guard.Route{Path: r.URL.Path, AnyOf: codes})
	}, opts)
}

// RequireAll admits requests from sessions holding every one of codes.
func RequireAll(console *goAccess.Console, codes []string, opts ...Option) func(http.Handler) http.Handler {
	return enforce(console, func(r *http.Request) guard.Result {
		return console.Check(r.Context(), guard.Route{Path: r.URL.Path, AllOf: codes})
	}, opts)
}

func enforce(console *goAccess.Console, check func(*http.Request) guard.Result, opts []Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if console == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res := check(r)
			switch res.Decision {
			case guard.Allow:
				ctx := context.WithValue(r.Context(), resultContextKey{}, res)
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.RedirectToLogin:
				if o.unauthorizedStatus != 0 {
					http.Error(w, http.StatusText(o.unauthorizedStatus), o.unauthorizedStatus)
					return
				}
				http.Redirect(w, r, console.LoginRedirect(r.URL.RequestURI()), http.StatusFound)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
