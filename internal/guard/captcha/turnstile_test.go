package captcha

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newVerifier(url string) *Verifier {
	return New(Config{Secret: "secret", VerifyURL: url, Timeout: time.Second},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestVerify(t *testing.T) {
	t.Run("success posts form fields", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "secret", r.PostForm.Get("secret"))
			assert.Equal(t, "tok", r.PostForm.Get("response"))
			assert.Equal(t, "1.2.3.4", r.PostForm.Get("remoteip"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true}`))
		})
		assert.NoError(t, newVerifier(srv.URL).Verify(context.Background(), "tok", "1.2.3.4"))
	})

	t.Run("non success body rejected", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		})
		assert.ErrorIs(t, newVerifier(srv.URL).Verify(context.Background(), "tok", "1.2.3.4"), ErrRejected)
	})

	t.Run("error status rejected", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		assert.ErrorIs(t, newVerifier(srv.URL).Verify(context.Background(), "tok", "1.2.3.4"), ErrRejected)
	})

	t.Run("transport failure rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		assert.ErrorIs(t, newVerifier(url).Verify(context.Background(), "tok", "1.2.3.4"), ErrRejected)
	})

	t.Run("empty token rejected when enabled", func(t *testing.T) {
		assert.ErrorIs(t, newVerifier("http://unused").Verify(context.Background(), "", "1.2.3.4"), ErrRejected)
	})

	t.Run("disabled without secret", func(t *testing.T) {
		v := New(Config{})
		assert.False(t, v.Enabled())
		assert.NoError(t, v.Verify(context.Background(), "", "1.2.3.4"))
	})
}

func TestToDomainError(t *testing.T) {
	assert.NoError(t, ToDomainError(nil))
	assert.ErrorContains(t, ToDomainError(ErrRejected), "CAPTCHA verification failed. Please try again.")
}
