package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"intake/internal/intake/models"
	rlmodels "intake/internal/ratelimit/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/metadata"
	"intake/pkg/platform/middleware/request"
	"intake/pkg/requestcontext"
)

// Service is the submission workflow used by the public endpoints.
type Service interface {
	IssueFormToken(ctx context.Context, ip string) (string, error)
	Admit(ctx context.Context, ip string) error
	RecordRejection(ctx context.Context, ip, outcome string)
	Submit(ctx context.Context, ip string, req *models.SubmitRequest) (*models.SubmitResponse, error)
	Get(ctx context.Context, id string) (*models.Application, error)
}

// Handler serves the public form endpoints.
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

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/form-token", h.handleFormToken)
	r.Post("/api/submit", h.handleSubmit)
	r.Get("/api/forms/{id}", h.handleGetForm)
}

func (h *Handler) handleFormToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, err := h.service.IssueFormToken(ctx, clientIP(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue form token",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.FormTokenResponse{Token: token})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r)

	if r.ContentLength > h.maxBodyBytes {
		h.tooLarge(ctx, w, ip)
		return
	}

	if err := h.service.Admit(ctx, ip); err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(ctx, w, ip)
			return
		}
		h.logger.WarnContext(ctx, "failed to decode submission",
			"request_id", request.GetRequestID(ctx),
			"ip_prefix", metadata.IPPrefix(ip),
			"error", err,
		)
		h.service.RecordRejection(ctx, ip, models.OutcomeBadBody)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return
	}

	resp, err := h.service.Submit(ctx, ip, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) tooLarge(ctx context.Context, w http.ResponseWriter, ip string) {
	h.service.RecordRejection(ctx, ip, models.OutcomeTooLarge)
	httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "Request too large"))
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load form",
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ApplicationResponse{Success: true, Data: app})
}

// writeError adds Retry-After to throttled responses.
func writeError(w http.ResponseWriter, err error) {
	var throttled *models.ThrottledError
	if errors.As(err, &throttled) {
		w.Header().Set("Retry-After", strconv.Itoa(rlmodels.RetryAfterSeconds(throttled.Wait)))
	}
	httputil.WriteError(w, err)
}

func clientIP(r *http.Request) string {
	if ip := requestcontext.ClientIP(r.Context()); ip != "" {
		return ip
	}
	return metadata.ClientIPFromRequest(r)
}
