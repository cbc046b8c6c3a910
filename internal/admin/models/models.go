package models

import (
	intakemodels "intake/internal/intake/models"
	"intake/pkg/platform/audit"
)

// VerifyRequest is the admin login form body.
type VerifyRequest struct {
	Password string `json:"password"`
}

type VerifyResponse struct {
	Success bool `json:"success"`
}

// SubmissionsResponse lists applications newest first. IP addresses are kept.
type SubmissionsResponse struct {
	Submissions []*intakemodels.Application `json:"submissions"`
}

type AuditResponse struct {
	Events []audit.Event `json:"events"`
}
