package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategorySecurity covers abuse rejections and admin auth failures.
	// These are what operators read when tuning throttle thresholds.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine state changes such as accepted
	// submissions, issued certificates and exports.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores can fan out.
type Event struct {
	ID        string        `json:"id,omitempty"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Subject is the throttled or affected key: an IP prefix, an application id, a certificate id.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}

type AuditEvent string

const (
	// Submission events
	EventSubmissionAccepted AuditEvent = "submission_accepted"
	EventSubmissionRejected AuditEvent = "submission_rejected"
	EventSuspiciousRecorded AuditEvent = "suspicious_activity_recorded"
	EventSuspiciousBlocked  AuditEvent = "suspicious_ip_blocked"
	EventRateLimitExceeded  AuditEvent = "rate_limit_exceeded"

	// Admin events
	EventAdminAuthFailed    AuditEvent = "admin_auth_failed"
	EventAdminExport        AuditEvent = "admin_export_downloaded"
	EventCertificateIssued  AuditEvent = "certificate_issued"
	EventCertificateUpload  AuditEvent = "certificate_upload_failed"
	EventImageUploadFailure AuditEvent = "image_upload_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSubmissionAccepted: CategoryOperations,
	EventSubmissionRejected: CategorySecurity,
	EventSuspiciousRecorded: CategorySecurity,
	EventSuspiciousBlocked:  CategorySecurity,
	EventRateLimitExceeded:  CategorySecurity,
	EventAdminAuthFailed:    CategorySecurity,
	EventAdminExport:        CategoryOperations,
	EventCertificateIssued:  CategoryOperations,
	EventCertificateUpload:  CategoryOperations,
	EventImageUploadFailure: CategoryOperations,
}

// Category returns the category for the event, defaulting to operations.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
