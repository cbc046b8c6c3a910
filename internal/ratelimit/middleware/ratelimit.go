package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"intake/internal/ratelimit/models"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/metadata"
	"intake/pkg/requestcontext"
)

// AdminLimiter applies the admin endpoint class.
type AdminLimiter interface {
	CheckAdmin(ctx context.Context, ip string) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter AdminLimiter
	logger  *slog.Logger
}

func New(limiter AdminLimiter, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{limiter: limiter, logger: logger}
}

// RateLimitAdmin enforces the admin class per client IP. A store failure lets
// the request through.
func (m *Middleware) RateLimitAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.CheckAdmin(ctx, ip)
		if err != nil {
			m.logger.WarnContext(ctx, "admin rate limit check failed, allowing request",
				"ip_prefix", metadata.IPPrefix(ip),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: "Too many requests. Please try again later.",
		RetryAfter:       result.RetryAfter,
	})
}
