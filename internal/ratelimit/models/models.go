package models

import (
	"fmt"
	"math"
	"time"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassSubmit guards the public application submission.
	ClassSubmit EndpointClass = "submit"
	// ClassAdmin guards admin verify and listing endpoints.
	ClassAdmin EndpointClass = "admin"
	// ClassCooldown is the per-email resubmission cooldown.
	ClassCooldown EndpointClass = "email_cooldown"
)

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// CooldownResult represents the outcome of an email cooldown check.
type CooldownResult struct {
	Allowed   bool
	ExpiresAt time.Time
	// WaitTime is how long until the slot frees up. Zero when allowed.
	WaitTime time.Duration
}

// SuspiciousRecord is the per-IP failure counter. The window starts at the first failure.
type SuspiciousRecord struct {
	Count       int
	WindowStart time.Time
}

// Lapsed reports whether the record's window has ended at now.
func (r SuspiciousRecord) Lapsed(now time.Time, window time.Duration) bool {
	return !now.Before(r.WindowStart.Add(window))
}

// RetryAfterSeconds rounds d up to whole seconds, never below one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// WaitMinutes rounds d up to whole minutes, never below one.
func WaitMinutes(d time.Duration) int {
	mins := int(math.Ceil(d.Minutes()))
	if mins < 1 {
		return 1
	}
	return mins
}

// SubmissionLimitMessage is the user-facing text for a denied submission.
func SubmissionLimitMessage(wait time.Duration) string {
	return fmt.Sprintf("Too many submissions. Please try again in %d minutes.", WaitMinutes(wait))
}

// CooldownMessage is the user-facing text for a recently used email.
func CooldownMessage(wait time.Duration) string {
	return fmt.Sprintf("This email was recently used. Please try again in %d minutes or use a different email.", WaitMinutes(wait))
}
