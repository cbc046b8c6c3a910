package models

import (
	intakemodels "intake/internal/intake/models"
)

// IssueResponse is returned when a certificate has been issued.
type IssueResponse struct {
	Success        bool   `json:"success"`
	CertificateID  string `json:"certificateId"`
	SerialNumber   string `json:"serialNumber"`
	Grade          string `json:"grade"`
	GradePoint     int    `json:"gradePoint"`
	CertificateURL string `json:"certificateUrl"`
	ViewURL        string `json:"viewUrl"`
	// ApplicationID is set by the scratch flow, which creates the application.
	ApplicationID string `json:"applicationId,omitempty"`
}

// CertificateView is the public verification payload.
type CertificateView struct {
	Certificate *Certificate              `json:"certificate"`
	Application *intakemodels.Application `json:"application"`
}

// CertificateResponse wraps a public certificate read.
type CertificateResponse struct {
	Success bool             `json:"success"`
	Data    *CertificateView `json:"data"`
}

// ExistsResponse is the 409 body when an application already has a certificate.
type ExistsResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	CertificateID    string `json:"certificateId"`
	SerialNumber     string `json:"serialNumber"`
	CertificateURL   string `json:"certificateUrl"`
}

// ExistsError reports that the application was already certified.
type ExistsError struct {
	Existing *Certificate
	Err      error
}

func (e *ExistsError) Error() string {
	return e.Err.Error()
}

func (e *ExistsError) Unwrap() error {
	return e.Err
}

// Issue variants, used as metric labels.
const (
	VariantApplication = "application"
	VariantScratch     = "scratch"
)
