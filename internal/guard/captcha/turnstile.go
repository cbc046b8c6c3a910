// Package captcha verifies Cloudflare Turnstile challenge responses.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	dErrors "intake/pkg/domain-errors"
)

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// ErrRejected is returned for every failed verification.
var ErrRejected = errors.New("captcha rejected")

// Config configures the Turnstile verifier.
type Config struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier posts challenge responses to the siteverify endpoint.
type Verifier struct {
	client    *resty.Client
	secret    string
	verifyURL string
	logger    *slog.Logger
}

type Option func(*Verifier)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

func New(cfg Config, opts ...Option) *Verifier {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	v := &Verifier{
		client:    resty.New().SetTimeout(cfg.Timeout),
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether a secret is configured. Without one, verification is skipped.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify checks token for ip. Success needs a 2xx reply whose body has success == true.
func (v *Verifier) Verify(ctx context.Context, token, ip string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrRejected)
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secret,
			"response": token,
			"remoteip": ip,
		}).
		Post(v.verifyURL)
	if err != nil {
		v.logger.WarnContext(ctx, "turnstile request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if resp.IsError() {
		v.logger.WarnContext(ctx, "turnstile returned error status", "status", resp.StatusCode())
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}

	var body siteverifyResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRejected, err)
	}
	if !body.Success {
		v.logger.InfoContext(ctx, "turnstile rejected token", "error_codes", body.ErrorCodes)
		return ErrRejected
	}
	return nil
}

// ToDomainError maps a verification failure to the message shown to the submitter.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "CAPTCHA verification failed. Please try again.")
}
