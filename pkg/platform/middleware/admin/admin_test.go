package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentialMatches(t *testing.T) {
	t.Run("plaintext", func(t *testing.T) {
		c := NewCredential("s3cret", "")
		assert.True(t, c.Matches("s3cret"))
		assert.False(t, c.Matches("s3cret "))
		assert.False(t, c.Matches(""))
	})

	t.Run("bcrypt hash takes precedence", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pass"), bcrypt.MinCost)
		require.NoError(t, err)
		c := NewCredential("plain-pass", string(hash))
		assert.True(t, c.Matches("hashed-pass"))
		assert.False(t, c.Matches("plain-pass"))
	})

	t.Run("unconfigured never matches", func(t *testing.T) {
		c := NewCredential("", "")
		assert.False(t, c.Configured())
		assert.False(t, c.Matches(""))
	})
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		cred   *Credential
		header string
		want   int
	}{
		{"valid bearer", NewCredential("pw", ""), "Bearer pw", http.StatusNoContent},
		{"lowercase scheme", NewCredential("pw", ""), "bearer pw", http.StatusNoContent},
		{"wrong password", NewCredential("pw", ""), "Bearer nope", http.StatusUnauthorized},
		{"missing header", NewCredential("pw", ""), "", http.StatusUnauthorized},
		{"not configured", NewCredential("", ""), "Bearer pw", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			RequireAdmin(tt.cred, logger)(ok).ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
