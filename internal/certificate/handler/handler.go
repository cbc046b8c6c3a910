package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"intake/internal/certificate/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/request"
)

// Service is the certificate workflow behind the HTTP endpoints.
type Service interface {
	IssueForApplication(ctx context.Context, req *models.GenerateRequest) (*models.IssueResponse, error)
	IssueFromScratch(ctx context.Context, req *models.ScratchRequest) (*models.IssueResponse, error)
	Get(ctx context.Context, id string) (*models.CertificateView, error)
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	maxBodyBytes int64
}

func New(service Service, logger *slog.Logger, maxBodyBytes int64) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Register mounts the public verification read.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/certificates/{id}", h.handleGet)
}

// RegisterAdmin mounts the issuing endpoints. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/certificates/generate", h.handleGenerate)
	r.Post("/api/certificates/generate-scratch", h.handleGenerateScratch)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	req, ok := httputil.DecodeAndPrepare[models.GenerateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp, err := h.service.IssueForApplication(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "certificate not issued",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"error", err,
		)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGenerateScratch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req models.ScratchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode scratch certificate request",
			"request_id", requestID,
			"error", err,
		)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "Request too large"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}

	resp, err := h.service.IssueFromScratch(ctx, &req)
	if err != nil {
		h.logger.WarnContext(ctx, "scratch certificate not issued",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.CertificateResponse{Success: true, Data: view})
}

// writeError adds the existing certificate to an already-issued conflict.
func writeError(w http.ResponseWriter, err error) {
	var exists *models.ExistsError
	if errors.As(err, &exists) && exists.Existing != nil {
		msg := "Certificate already exists for this application"
		if de, ok := dErrors.Is(err); ok {
			msg = de.Message
		}
		httputil.WriteJSON(w, http.StatusConflict, models.ExistsResponse{
			Error:            string(dErrors.CodeConflict),
			ErrorDescription: msg,
			CertificateID:    exists.Existing.ID.String(),
			SerialNumber:     exists.Existing.SerialNumber,
			CertificateURL:   exists.Existing.CertificateURL,
		})
		return
	}
	httputil.WriteError(w, err)
}
