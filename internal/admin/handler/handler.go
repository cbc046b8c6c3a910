package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"intake/internal/admin/export"
	"intake/internal/admin/models"
	intakemodels "intake/internal/intake/models"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/request"
	"intake/pkg/requestcontext"
)

// Service is the admin console backend.
type Service interface {
	Verify(ctx context.Context, password string) error
	Submissions(ctx context.Context) ([]*intakemodels.Application, error)
	WriteCSV(ctx context.Context, w io.Writer, apps []*intakemodels.Application) error
	WriteImages(ctx context.Context, w io.Writer, apps []*intakemodels.Application) (*export.ZipSummary, error)
	RecentAudit(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the login check. The caller applies the admin rate limit.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/admin/verify", h.handleVerify)
}

// RegisterAdmin mounts the authenticated console endpoints. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/admin/submissions", h.handleSubmissions)
	r.Get("/api/admin/export/csv", h.handleExportCSV)
	r.Get("/api/admin/export/images", h.handleExportImages)
	r.Get("/api/admin/audit", h.handleAudit)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.Verify(ctx, req.Password); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.VerifyResponse{Success: true})
}

func (h *Handler) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	apps, ok := h.submissions(w, r)
	if !ok {
		return
	}
	if apps == nil {
		apps = []*intakemodels.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.SubmissionsResponse{Submissions: apps})
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, ok := h.submissions(w, r)
	if !ok {
		return
	}

	filename := export.CSVFilename(requestcontext.Now(ctx))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.service.WriteCSV(ctx, w, apps); err != nil {
		// Headers are already sent
		h.logger.ErrorContext(ctx, "csv export interrupted",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
}

func (h *Handler) handleExportImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, ok := h.submissions(w, r)
	if !ok {
		return
	}

	filename := export.ZipFilename(requestcontext.Now(ctx))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := h.service.WriteImages(ctx, w, apps); err != nil {
		h.logger.ErrorContext(ctx, "image export interrupted",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.RecentAudit(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.AuditResponse{Events: events})
}

func (h *Handler) submissions(w http.ResponseWriter, r *http.Request) ([]*intakemodels.Application, bool) {
	ctx := r.Context()
	apps, err := h.service.Submissions(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list submissions",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return apps, true
}
