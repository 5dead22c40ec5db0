package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"entangledu/contracts/mint"
	"entangledu/internal/issuer/models"
	"entangledu/pkg/platform/httputil"
	"entangledu/pkg/requestcontext"
)

// Service defines the issuer operations exposed over HTTP.
type Service interface {
	Mint(ctx context.Context, req models.MintRequest) (*models.Certificate, error)
	Audit(ctx context.Context) models.AuditResult
	Health(ctx context.Context) models.HealthStatus
}

// Handler serves the issuer API.
type Handler struct {
	issuer Service
	logger *slog.Logger
}

// New creates a new issuer Handler.
func New(issuer Service, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, logger: logger}
}

// Register registers the issuer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/health", h.HandleHealth)
	r.Get("/api/certificates", h.HandleAudit)
	r.Post("/api/mint", h.HandleMint)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.issuer.Health(r.Context())
	httputil.WriteJSON(w, http.StatusOK, mint.HealthResponse{
		Status: status.Status,
		Signer: status.Signer,
		Mints:  status.Mints,
	})
}

// HandleAudit lists the full mint log. The endpoint is intentionally unauthenticated.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	result := h.issuer.Audit(r.Context())
	certs := make([]mint.Certificate, 0, len(result.Certificates))
	for _, c := range result.Certificates {
		certs = append(certs, c.ToContract())
	}
	httputil.WriteJSON(w, http.StatusOK, mint.AuditResponse{
		Total:        result.Total,
		Certificates: certs,
	})
}

func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, ok := httputil.DecodeAndPrepare[mint.MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cert, err := h.issuer.Mint(ctx, models.MintRequest{
		Recipient:   body.To,
		LessonID:    string(body.LessonID),
		LessonTitle: body.LessonTitle,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "mint rejected",
			"request_id", requestID,
			"lesson_id", string(body.LessonID),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	wire := cert.ToContract()
	httputil.WriteJSON(w, http.StatusOK, mint.MintResponse{Success: true, Certificate: &wire})
}
