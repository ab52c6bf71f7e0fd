package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"checkoutcore/internal/auth"
)

type principalKey string

const principalCtxKey principalKey = "principal"

// AuthTokenMiddleware decodes the bearer credential into a Principal and
// attaches it to the request context. The role travels on the token, so
// no user lookup happens per request.
func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := auth.BearerFromRequest(r)
		principal, err := app.authenticator.Authenticate(r.Context(), raw)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getPrincipal(r *http.Request) (auth.Principal, bool) {
	p, ok := r.Context().Value(principalCtxKey).(auth.Principal)
	return p, ok
}

// RequireAdminMiddleware rejects any caller whose Principal is not an
// admin.
func (app *application) RequireAdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := getPrincipal(r)
		if !ok {
			app.unauthorizedErrorResponse(w, r, errors.New("not authenticated"))
			return
		}
		if !principal.IsAdmin() {
			app.forbiddenResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCustomerMiddleware rejects any caller that does not hold the
// customer role (e.g. an admin account with no cart of its own).
func (app *application) RequireCustomerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := getPrincipal(r)
		if !ok {
			app.unauthorizedErrorResponse(w, r, errors.New("not authenticated"))
			return
		}
		if !principal.HasRole(auth.RoleCustomer) {
			app.forbiddenResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimiterMiddleware applies the global fixed-window limiter.
func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter.String())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// StrictLimiterMiddleware applies a tighter limiter to one route, used
// for login/register.
func (app *application) StrictLimiterMiddleware(limiter interface {
	Allow(ip string) (bool, time.Duration)
}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allow, retryAfter := limiter.Allow(clientIP(r)); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
