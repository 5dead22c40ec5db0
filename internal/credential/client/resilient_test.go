package client

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entangledu/contracts/mint"
	dErrors "entangledu/pkg/domain-errors"
	"entangledu/pkg/platform/circuit"
)

type scriptedMinter struct {
	calls int
	errs  []error
}

func (m *scriptedMinter) Mint(_ context.Context, req mint.MintRequest) (*mint.Certificate, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return &mint.Certificate{LessonID: req.LessonID}, nil
}

func TestResilient_FailsFastWhenOpen(t *testing.T) {
	now := time.UnixMilli(0)
	unavailable := dErrors.New(dErrors.CodeUnavailable, "issuer unreachable")
	delegate := &scriptedMinter{errs: []error{unavailable, unavailable}}
	breaker := circuit.New("issuer_mint",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	r := NewResilient(delegate, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for range 2 {
		_, err := r.Mint(ctx, mint.MintRequest{LessonID: "1"})
		require.Error(t, err)
	}
	assert.Equal(t, circuit.StateOpen, breaker.State())

	_, err := r.Mint(ctx, mint.MintRequest{LessonID: "1"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Equal(t, 2, delegate.calls, "open circuit must not reach the issuer")

	now = now.Add(time.Minute)
	cert, err := r.Mint(ctx, mint.MintRequest{LessonID: "1"})
	require.NoError(t, err)
	assert.Equal(t, mint.LessonID("1"), cert.LessonID)
	assert.Equal(t, circuit.StateClosed, breaker.State())
}

func TestResilient_DenialKeepsCircuitClosed(t *testing.T) {
	denied := dErrors.New(dErrors.CodeMintDenied, "no")
	delegate := &scriptedMinter{errs: []error{denied, denied, denied}}
	breaker := circuit.New("issuer_mint", circuit.WithFailureThreshold(1))
	r := NewResilient(delegate, breaker, nil)

	for range 3 {
		_, err := r.Mint(context.Background(), mint.MintRequest{LessonID: "2"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMintDenied))
	}
	assert.Equal(t, circuit.StateClosed, breaker.State())
	assert.Equal(t, 3, delegate.calls)
}

func TestResilient_CallerCancelIsNotAFailure(t *testing.T) {
	canceled := dErrors.New(dErrors.CodeUnavailable, "issuer unreachable")
	delegate := &scriptedMinter{errs: []error{canceled}}
	breaker := circuit.New("issuer_mint", circuit.WithFailureThreshold(1))
	r := NewResilient(delegate, breaker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Mint(ctx, mint.MintRequest{LessonID: "3"})
	require.Error(t, err)
	assert.Equal(t, circuit.StateClosed, breaker.State())
}
