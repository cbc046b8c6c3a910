package admin

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/metadata"
	"intake/pkg/requestcontext"
)

// Credential holds the admin secret: a plaintext password, a bcrypt hash, or both.
// When a hash is present it takes precedence.
type Credential struct {
	password string
	hash     []byte
}

// NewCredential builds a credential from configuration values.
func NewCredential(password, bcryptHash string) *Credential {
	c := &Credential{password: password}
	if bcryptHash != "" {
		c.hash = []byte(bcryptHash)
	}
	return c
}

// Configured reports whether any admin secret is set.
func (c *Credential) Configured() bool {
	return c != nil && (c.password != "" || len(c.hash) > 0)
}

// Matches compares candidate against the configured secret in constant time.
func (c *Credential) Matches(candidate string) bool {
	if !c.Configured() {
		return false
	}
	if len(c.hash) > 0 {
		return bcrypt.CompareHashAndPassword(c.hash, []byte(candidate)) == nil
	}
	// Digests keep the comparison length-independent
	want := sha256.Sum256([]byte(c.password))
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAdmin rejects requests whose bearer token does not match the credential.
// A missing credential is a server misconfiguration, not an auth failure.
func RequireAdmin(cred *Credential, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !cred.Configured() {
				logger.ErrorContext(ctx, "admin credential not configured",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "Server configuration error"))
				return
			}
			if !cred.Matches(BearerToken(r)) {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"ip_prefix", metadata.IPPrefix(requestcontext.ClientIP(ctx)),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
