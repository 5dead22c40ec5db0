package client

import (
	"context"
	"errors"
	"log/slog"

	"entangledu/contracts/mint"
	dErrors "entangledu/pkg/domain-errors"
	"entangledu/pkg/platform/circuit"
)

// Minter is the mint half of the issuer API.
type Minter interface {
	Mint(ctx context.Context, req mint.MintRequest) (*mint.Certificate, error)
}

// Resilient wraps a Minter with a circuit breaker. While the circuit is open
// calls fail fast with CodeUnavailable instead of waiting out the mint timeout,
// so a learner working offline records unverified credentials immediately.
// A denial counts as a working issuer.
type Resilient struct {
	delegate Minter
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewResilient(delegate Minter, breaker *circuit.Breaker, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resilient{delegate: delegate, breaker: breaker, logger: logger}
}

func (r *Resilient) Mint(ctx context.Context, req mint.MintRequest) (*mint.Certificate, error) {
	if !r.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "issuer circuit open")
	}

	cert, err := r.delegate.Mint(ctx, req)
	switch {
	case err == nil, dErrors.HasCode(err, dErrors.CodeMintDenied):
		if change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "circuit breaker closed", "circuit", r.breaker.Name())
		}
	case errors.Is(ctx.Err(), context.Canceled):
		// the caller gave up; says nothing about the issuer
	default:
		if change := r.breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "circuit breaker opened",
				"circuit", r.breaker.Name(),
				"error", err,
			)
		}
	}
	return cert, err
}
