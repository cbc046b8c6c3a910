package audit

import (
	"context"
	"log/slog"

	"intake/pkg/attrs"
	"intake/pkg/requestcontext"
)

// Publisher emits audit events for security-relevant operations.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogAudit writes event to the structured logger and, when publisher is set,
// to the audit trail. Subject and reason are lifted from the attribute list.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher Publisher, event AuditEvent, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", string(event), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if publisher == nil {
		return
	}

	if err := publisher.Emit(ctx, Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx).UTC(),
		Action:    string(event),
		Subject:   attrs.ExtractFirst(attrList, "ip_prefix", "application_id", "certificate_id", "identifier"),
		Decision:  attrs.ExtractString(attrList, "decision"),
		Reason:    attrs.ExtractFirst(attrList, "reason", "check"),
		RequestID: requestID,
		ActorID:   attrs.ExtractString(attrList, "actor"),
	}); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

