// Package formtoken issues and verifies signed form-load tokens used to reject
// submissions that arrive too fast or too late.
package formtoken

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	dErrors "intake/pkg/domain-errors"
	"intake/pkg/requestcontext"
)

const delimiter = "|"

var (
	ErrMalformed = errors.New("invalid token format")
	ErrSignature = errors.New("invalid signature")
	ErrExpired   = errors.New("token expired")
	ErrTooFast   = errors.New("submitted too quickly")
	ErrIPChanged = errors.New("ip mismatch")
)

// Config controls token lifetime and checks.
type Config struct {
	Secret    string
	MaxAge    time.Duration
	MinDwell  time.Duration
	EnforceIP bool
}

// Issuer signs and verifies form tokens with HMAC-SHA256.
type Issuer struct {
	secret    []byte
	maxAge    time.Duration
	minDwell  time.Duration
	enforceIP bool
}

func New(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("form token secret is required")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}
	return &Issuer{
		secret:    []byte(cfg.Secret),
		maxAge:    cfg.MaxAge,
		minDwell:  cfg.MinDwell,
		enforceIP: cfg.EnforceIP,
	}, nil
}

// Issue returns base64("ts|nonce|ip|hexsig") stamped with the request time.
func (i *Issuer) Issue(ctx context.Context, ip string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	data := strings.Join([]string{
		strconv.FormatInt(requestcontext.Now(ctx).UnixMilli(), 10),
		hex.EncodeToString(nonce),
		ip,
	}, delimiter)
	return base64.StdEncoding.EncodeToString([]byte(data + delimiter + i.sign(data))), nil
}

// Verify checks structure, signature, age and dwell time. It returns how long
// the form was open.
func (i *Issuer) Verify(ctx context.Context, token, ip string) (time.Duration, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrMalformed
	}
	parts := strings.Split(string(raw), delimiter)
	if len(parts) != 4 {
		return 0, ErrMalformed
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}

	expected := i.sign(strings.Join(parts[:3], delimiter))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[3])) != 1 {
		return 0, ErrSignature
	}

	elapsed := requestcontext.Now(ctx).Sub(time.UnixMilli(ts))
	if elapsed > i.maxAge {
		return elapsed, ErrExpired
	}
	if i.enforceIP && parts[2] != ip {
		return elapsed, ErrIPChanged
	}
	if elapsed < i.minDwell {
		return elapsed, ErrTooFast
	}
	return elapsed, nil
}

func (i *Issuer) sign(data string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// ToDomainError maps a verification failure to the message shown to the submitter.
func ToDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrExpired):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Form session expired. Please reload the page.")
	case errors.Is(err, ErrTooFast):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Form submitted too quickly. Please take your time to fill the form.")
	default:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid form session. Please reload the page.")
	}
}
