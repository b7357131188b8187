package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/auth"
	"github.com/dveridom/backend/internal/cache"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// AuthMiddleware пускает дальше только запросы с валидным Bearer-токеном.
// Claims кладутся в контекст запроса.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header must be a Bearer token")
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				log.Warn().Err(err).Msg("Rejected request with invalid token")
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext достаёт claims, положенные AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// RateLimitMiddleware реализует фиксированное окно на Redis: счётчик на
// IP клиента с TTL длиной в окно. При недоступном или выключенном Redis
// лимит не применяется, запросы проходят.
func RateLimitMiddleware(cacheClient *cache.Client, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cacheClient.Enabled() || max <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("ratelimit:%s", clientIP(r))
			count, err := cacheClient.Incr(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Msg("Rate limit counter unavailable, letting request through")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := cacheClient.Expire(r.Context(), key, window); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("Failed to set rate limit window")
				}
			}
			if count > int64(max) {
				respondWithError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
