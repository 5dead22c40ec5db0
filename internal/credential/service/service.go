package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/singleflight"

	"entangledu/contracts/mint"
	"entangledu/internal/credential/metrics"
	issuermodels "entangledu/internal/issuer/models"
	"entangledu/internal/issuer/payload"
	"entangledu/internal/issuer/signer"
	"entangledu/internal/ledger/models"
	"entangledu/internal/platform/privacy"
	"entangledu/internal/platform/tracer"
	dErrors "entangledu/pkg/domain-errors"
)

const (
	// AnonymousRecipient is used when the learner has no wallet connected.
	AnonymousRecipient = "anonymous"

	defaultMintTimeout = 10 * time.Second
	noticeBuffer       = 16
)

// Issuer is the remote mint endpoint.
// Error Contract:
// - CodeMintDenied when the issuer answered and declined
// - any other error means the issuer could not be used
type Issuer interface {
	Mint(ctx context.Context, req mint.MintRequest) (*mint.Certificate, error)
}

// Ledger is the credential set the service writes into.
// Error Contract:
// - Insert returns CodeConflict when the id already exists
type Ledger interface {
	Get(id string) (models.Credential, bool)
	Insert(ctx context.Context, c models.Credential) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

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

// WithMintTimeout bounds each mint call. Zero or negative keeps the default.
func WithMintTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mintTimeout = d
		}
	}
}

// WithIssuerIdentity enables signature verification against the issuer's address.
func WithIssuerIdentity(identity string) Option {
	return func(s *Service) {
		s.issuerIdentity = strings.TrimSpace(identity)
	}
}

// WithClock sets the clock stamped on locally recorded credentials.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service turns "lesson passed" events into ledger credentials, asking the
// issuer for a signature and degrading to an unverified local record when the
// issuer cannot be used.
type Service struct {
	issuer         Issuer
	ledger         Ledger
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
	mintTimeout    time.Duration
	issuerIdentity string
	now            func() time.Time

	flights singleflight.Group

	mu      sync.RWMutex
	states  map[string]State
	notices chan Notice
}

func New(issuer Issuer, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		issuer:      issuer,
		ledger:      ledger,
		logger:      slog.Default(),
		tracer:      tracer.NewNoop(),
		mintTimeout: defaultMintTimeout,
		now:         time.Now,
		states:      make(map[string]State),
		notices:     make(chan Notice, noticeBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.issuerIdentity == "" {
		s.logger.Info("issuer identity not configured; certificates are trusted on receipt")
	}
	return s
}

// Notices delivers denial messages. Undelivered notices are dropped once the buffer is full.
func (s *Service) Notices() <-chan Notice {
	return s.notices
}

// State reports the last known state of lessonID's request.
func (s *Service) State(lessonID string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[lessonID]
}

// InFlight reports whether a mint call for lessonID is outstanding.
func (s *Service) InFlight(lessonID string) bool {
	return s.State(lessonID) == StatePending
}

// RequestCredential returns the ledger credential for ev.LessonID, minting one
// if needed. Concurrent requests for the same lesson share one mint call.
// A caller that gives up returns its context error; the shared call carries on
// for the others and still records its outcome.
//
// The only error a caller sees for issuer trouble is CodeMintDenied; an
// unreachable or misbehaving issuer yields an UNVERIFIED_LOCAL credential.
func (s *Service) RequestCredential(ctx context.Context, ev LessonPassed) (models.Credential, error) {
	ev.LessonID = strings.TrimSpace(ev.LessonID)
	ev.Recipient = strings.TrimSpace(ev.Recipient)
	if ev.LessonID == "" {
		return models.Credential{}, dErrors.New(dErrors.CodeInvalidRequest, "lesson id is required")
	}
	if ev.Recipient == "" {
		ev.Recipient = AnonymousRecipient
	}

	if existing, ok := s.ledger.Get(ev.LessonID); ok {
		s.observe(metrics.OutcomeCached)
		return existing, nil
	}

	// The flight outlives any one caller; the mint timeout still bounds it.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(ev.LessonID, func() (any, error) {
		return s.settle(flightCtx, ev)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return models.Credential{}, res.Err
		}
		return res.Val.(models.Credential), nil
	case <-ctx.Done():
		return models.Credential{}, ctx.Err()
	}
}

func (s *Service) settle(ctx context.Context, ev LessonPassed) (_ models.Credential, err error) {
	// A flight that finished just before this one started has already inserted.
	if existing, ok := s.ledger.Get(ev.LessonID); ok {
		s.observe(metrics.OutcomeCached)
		return existing, nil
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanCredentialSettle,
		tracer.String(tracer.AttrLessonID, ev.LessonID),
		tracer.String(tracer.AttrRecipient, privacy.MaskRecipient(ev.Recipient)),
	)
	defer func() { span.End(err) }()

	s.setState(ev.LessonID, StatePending)

	cert, mintErr := s.callIssuer(ctx, ev)
	if mintErr == nil {
		mintErr = s.checkCertificate(cert, ev)
	}

	switch {
	case mintErr == nil:
		cred := models.Credential{
			ID:        ev.LessonID,
			Title:     certificateTitle(cert, ev),
			Kind:      models.KindVerifiedProof,
			Timestamp: models.Millis(cert.Timestamp),
			Hash:      cert.Hash,
			Signature: cert.Signature,
		}
		span.SetAttributes(tracer.String(tracer.AttrOutcome, metrics.OutcomeVerified))
		return s.record(ctx, cred, StateVerified, metrics.OutcomeVerified)

	case dErrors.HasCode(mintErr, dErrors.CodeMintDenied):
		s.setState(ev.LessonID, StateDenied)
		s.observe(metrics.OutcomeDenied)
		s.publish(Notice{LessonID: ev.LessonID, Message: mintErr.Error(), At: s.now()})
		s.logger.InfoContext(ctx, "issuer declined mint",
			"lesson_id", ev.LessonID,
			"error", mintErr,
		)
		span.SetAttributes(tracer.String(tracer.AttrOutcome, metrics.OutcomeDenied))
		return models.Credential{}, mintErr

	default:
		s.logger.WarnContext(ctx, "issuer unavailable; recording unverified credential",
			"lesson_id", ev.LessonID,
			"error", mintErr,
		)
		cred := models.Credential{
			ID:        ev.LessonID,
			Title:     ev.LessonTitle,
			Kind:      models.KindUnverifiedLocal,
			Timestamp: models.Truncate(s.now()),
		}
		span.SetAttributes(tracer.String(tracer.AttrOutcome, metrics.OutcomeOffline))
		return s.record(ctx, cred, StateOffline, metrics.OutcomeOffline)
	}
}

func (s *Service) callIssuer(ctx context.Context, ev LessonPassed) (_ *mint.Certificate, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.mintTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, tracer.SpanCredentialMint, tracer.String(tracer.AttrLessonID, ev.LessonID))
	defer func() { span.End(err) }()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveMintCall(time.Since(start).Seconds())
		}
	}()

	return s.issuer.Mint(ctx, mint.MintRequest{
		To:          ev.Recipient,
		LessonID:    mint.LessonID(ev.LessonID),
		LessonTitle: ev.LessonTitle,
	})
}

// checkCertificate rejects certificates that cannot back a VERIFIED_PROOF.
// Returned errors are treated as an unusable issuer.
func (s *Service) checkCertificate(cert *mint.Certificate, ev LessonPassed) error {
	if cert.Hash == "" || cert.Signature == "" {
		return dErrors.New(dErrors.CodeUnavailable, "certificate missing hash or signature")
	}
	if cert.LessonID != "" && string(cert.LessonID) != ev.LessonID {
		return dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("certificate is for lesson %s, requested %s", cert.LessonID, ev.LessonID))
	}
	if s.issuerIdentity == "" {
		return nil
	}

	digest, err := payload.Hash(cert.Title, issuermodels.ProtocolVersion, cert.Timestamp)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate payload cannot be rebuilt")
	}
	if !strings.EqualFold(cert.Hash, hexutil.Encode(digest)) {
		return dErrors.New(dErrors.CodeUnavailable, "certificate hash does not match its payload")
	}
	ok, err := signer.VerifyHex(cert.Signature, cert.Hash, s.issuerIdentity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate signature is malformed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnavailable, "certificate not signed by the configured issuer")
	}
	return nil
}

// record inserts cred. Losing an insert race to another view is an invariant
// fault; the credential already in the ledger wins.
func (s *Service) record(ctx context.Context, cred models.Credential, state State, outcome string) (models.Credential, error) {
	err := s.ledger.Insert(ctx, cred)
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		s.logger.ErrorContext(ctx, "credential already present after mint",
			"lesson_id", cred.ID,
			"error", err,
		)
		if existing, ok := s.ledger.Get(cred.ID); ok {
			s.setState(cred.ID, state)
			return existing, nil
		}
	}
	if err != nil {
		s.setState(cred.ID, StateIdle)
		return models.Credential{}, err
	}
	s.setState(cred.ID, state)
	s.observe(outcome)
	return cred, nil
}

func (s *Service) setState(lessonID string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[lessonID] = state
}

func (s *Service) publish(n Notice) {
	select {
	case s.notices <- n:
	default:
		s.logger.Warn("notice dropped; no reader", "lesson_id", n.LessonID)
	}
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementRequests(outcome)
	}
}

func certificateTitle(cert *mint.Certificate, ev LessonPassed) string {
	if cert.Title != "" {
		return cert.Title
	}
	return ev.LessonTitle
}
