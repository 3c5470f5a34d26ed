package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joinsangha/storefront/internal/ratelimit"
	"github.com/joinsangha/storefront/pkg/logger"
	"go.uber.org/zap"
)

const (
	SessionCookie = "sangha_session"
	sessionMaxAge = 30 * 24 * time.Hour
)

type ctxKey string

const sessionKey ctxKey = "client_id"

// RequestLogger attaches a request-scoped logger and logs one line per request.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ctx := logger.WithContext(r.Context(), reqLog)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.FromContext(ctx, base).Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("client_ip", clientIP(r)),
			)
		})
	}
}

// SessionMiddleware identifies the browser by the session cookie, issuing a
// new one when it is missing or malformed. The id keys the cart and checkout.
func SessionMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey).(string); ok {
		return id
	}
	return ""
}

func requestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// clientIP prefers the first X-Forwarded-For hop, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// denyFunc writes the 429 body in the shape the endpoint family uses.
type denyFunc func(w http.ResponseWriter)

func denyWithError(w http.ResponseWriter) {
	respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests")
}

func denyWithMessage(w http.ResponseWriter) {
	respondMessage(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}

// RateLimit admits requests per client IP. A limiter backend error lets the
// request through.
func RateLimit(l ratelimit.Limiter, deny denyFunc, base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.FromContext(r.Context(), base).Warn("rate limiter unavailable, allowing request", zap.Error(err))
				ok = true
			}
			if !ok {
				deny(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
