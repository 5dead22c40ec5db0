package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"entangledu/internal/issuer/metrics"
	"entangledu/internal/issuer/models"
	"entangledu/internal/issuer/payload"
	"entangledu/internal/platform/privacy"
	"entangledu/internal/platform/tracer"
	dErrors "entangledu/pkg/domain-errors"
	"entangledu/pkg/platform/middleware/requesttime"
	"entangledu/pkg/platform/validation"
	"entangledu/pkg/requestcontext"
)

// Store is the append-only mint log.
// Error Contract:
// - Append returns nil on success or an error for infrastructure failures
// - List and Count never fail
type Store interface {
	Append(ctx context.Context, cert models.Certificate) error
	List(ctx context.Context) []models.Certificate
	Count(ctx context.Context) int
}

// Signer signs 32-byte payload digests with the issuer key.
type Signer interface {
	Sign(ctx context.Context, digest []byte) ([]byte, error)
	Identity() string
}

type Option func(*Service)

// Service mints signed lesson-completion certificates.
type Service struct {
	store   Store
	signer  Signer
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

func New(store Store, signer Signer, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		signer: signer,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Mint signs a completion event for req and appends the certificate to the log.
// The log is untouched when validation or signing fails.
func (s *Service) Mint(ctx context.Context, req models.MintRequest) (_ *models.Certificate, err error) {
	req.Normalize()
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssuerMint,
		tracer.String(tracer.AttrLessonID, req.LessonID),
		tracer.String(tracer.AttrRecipient, privacy.MaskRecipient(req.Recipient)),
	)
	defer func() { span.End(err) }()

	requestID := requestcontext.RequestID(ctx)

	if err := validation.CheckFields(
		validation.Field{Name: "to", Value: req.Recipient, Max: validation.MaxRecipientLength, Required: true},
		validation.Field{Name: "lessonId", Value: req.LessonID, Max: validation.MaxLessonIDLength, Required: true},
		validation.Field{Name: "lessonTitle", Value: req.LessonTitle, Max: validation.MaxLessonTitleLength},
	); err != nil {
		s.observe(metrics.OutcomeInvalid)
		return nil, err
	}

	issuedAt := requesttime.Now(ctx).UTC().Truncate(time.Millisecond)

	digest, err := payload.Hash(req.LessonTitle, models.ProtocolVersion, issuedAt.UnixMilli())
	if err != nil {
		s.observe(metrics.OutcomeInvalid)
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "cannot encode payload")
	}

	signature, err := s.sign(ctx, digest)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sign certificate",
			"request_id", requestID,
			"lesson_id", req.LessonID,
			"error", err,
		)
		s.observe(metrics.OutcomeSigningFailed)
		return nil, dErrors.Wrap(err, dErrors.CodeSigningFailed, "failed to sign certificate")
	}

	cert := models.Certificate{
		ID:        models.NewCertificateID(),
		LessonID:  req.LessonID,
		Title:     req.LessonTitle,
		Recipient: req.Recipient,
		Signature: hexutil.Encode(signature),
		Hash:      hexutil.Encode(digest),
		IssuedAt:  issuedAt,
	}

	if err := s.store.Append(ctx, cert); err != nil {
		s.logger.ErrorContext(ctx, "failed to append certificate",
			"request_id", requestID,
			"lesson_id", req.LessonID,
			"error", err,
		)
		s.observe(metrics.OutcomeStoreFailed)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record certificate")
	}

	size := s.store.Count(ctx)
	span.SetAttributes(tracer.Int64(tracer.AttrLogSize, int64(size)))
	if s.metrics != nil {
		s.metrics.IncrementMints(metrics.OutcomeIssued)
		s.metrics.SetMintLogSize(size)
	}
	s.logger.InfoContext(ctx, "certificate minted",
		"request_id", requestID,
		"certificate_id", cert.ID.String(),
		"lesson_id", cert.LessonID,
		"recipient", privacy.MaskRecipient(cert.Recipient),
	)
	return &cert, nil
}

func (s *Service) sign(ctx context.Context, digest []byte) (_ []byte, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssuerSign)
	defer func() { span.End(err) }()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSigningDuration(time.Since(start).Seconds())
		}
	}()
	return s.signer.Sign(ctx, digest)
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementMints(outcome)
	}
}

// Audit returns every certificate in issuance order.
func (s *Service) Audit(ctx context.Context) models.AuditResult {
	certs := s.store.List(ctx)
	return models.AuditResult{Total: len(certs), Certificates: certs}
}

func (s *Service) Health(ctx context.Context) models.HealthStatus {
	return models.HealthStatus{
		Status: models.HealthStatusOK,
		Signer: s.signer.Identity(),
		Mints:  s.store.Count(ctx),
	}
}
