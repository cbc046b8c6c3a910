package models

import "time"

// SubmitResponse is returned for an accepted application.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
	ViewURL string `json:"view_url"`
	// QRCode is a PNG data URL, omitted when generation failed.
	QRCode string `json:"qr_code,omitempty"`
}

// FormTokenResponse carries a freshly issued form token.
type FormTokenResponse struct {
	Token string `json:"token"`
}

// ApplicationResponse wraps a public application read.
type ApplicationResponse struct {
	Success bool         `json:"success"`
	Data    *Application `json:"data"`
}

// Submission outcomes, used as metric labels.
const (
	OutcomeAccepted   = "accepted"
	OutcomeTooLarge   = "too_large"
	OutcomeBanned     = "banned"
	OutcomeRateLimit  = "rate_limited"
	OutcomeBadBody    = "bad_body"
	OutcomeCaptcha    = "captcha"
	OutcomeTiming     = "timing"
	OutcomeCooldown   = "cooldown"
	OutcomeValidation = "validation"
	OutcomeDuplicate  = "duplicate"
	OutcomeError      = "error"
)

// ThrottledError is a rate-limit rejection that knows how long the client should wait.
type ThrottledError struct {
	Wait time.Duration
	Err  error
}

func (e *ThrottledError) Error() string {
	return e.Err.Error()
}

func (e *ThrottledError) Unwrap() error {
	return e.Err
}
