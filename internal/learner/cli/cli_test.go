package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"entangledu/internal/issuer/handler"
	"entangledu/internal/issuer/service"
	"entangledu/internal/issuer/signer"
	"entangledu/internal/issuer/store"
	"entangledu/internal/learner/app"
	"entangledu/internal/ledger/storage"
	"entangledu/internal/platform/config"
	httptransport "entangledu/internal/transport/http"
)

type CLISuite struct {
	suite.Suite
	storage  *storage.Memory
	cfg      config.Learner
	identity string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key, err := signer.GenerateKeyHex()
	s.Require().NoError(err)
	ks, err := signer.NewKeySigner(key)
	s.Require().NoError(err)
	svc := service.New(store.New(), ks, service.WithLogger(logger))
	srv := httptest.NewServer(httptransport.NewRouter(httptransport.RouterConfig{}, logger, handler.New(svc, logger)))
	s.T().Cleanup(srv.Close)

	s.identity = ks.Identity()
	s.storage = storage.NewMemory()
	s.cfg = config.Learner{
		IssuerURL:      srv.URL,
		MintTimeout:    2 * time.Second,
		Storage:        config.StorageMemory,
		IssuerIdentity: ks.Identity(),
	}
}

func (s *CLISuite) run(args ...string) (string, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := NewRootCommand(func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, s.cfg, s.storage, logger)
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (s *CLISuite) mustRun(args ...string) string {
	out, err := s.run(args...)
	s.Require().NoError(err, "learner %v", args)
	return out
}

func (s *CLISuite) TestLessons() {
	s.mustRun("pass", "2")

	out := s.mustRun("lessons")
	s.Contains(out, "Holographic Principle")
	s.Contains(out, "Lorenz Attractor")
	s.Contains(out, "VERIFIED_PROOF")
}

func (s *CLISuite) TestPass() {
	out := s.mustRun("pass", "1")
	s.Contains(out, "VERIFIED PROOF RECORDED FOR 1")
	s.Contains(out, "signature: 0x")

	out = s.mustRun("pass", "1")
	s.Contains(out, "VERIFIED PROOF RECORDED FOR 1")

	_, err := s.run("pass", "99")
	s.Error(err)

	_, err = s.run("pass")
	s.Error(err)
}

func (s *CLISuite) TestPass_OfflineIssuer() {
	s.cfg.IssuerURL = "http://127.0.0.1:1"
	out := s.mustRun("pass", "3")
	s.Contains(out, "UNVERIFIED CREDENTIAL RECORDED FOR 3")
}

func (s *CLISuite) TestLedgerJSON() {
	out := s.mustRun("ledger", "--json")
	s.JSONEq(`[]`, out)

	s.mustRun("pass", "1")
	out = s.mustRun("ledger", "--json")

	var creds []map[string]any
	s.Require().NoError(json.Unmarshal([]byte(out), &creds))
	s.Require().Len(creds, 1)
	s.Equal("1", creds[0]["id"])
	s.Equal("VERIFIED_PROOF", creds[0]["type"])
}

func (s *CLISuite) TestLedgerTable() {
	s.Contains(s.mustRun("ledger"), "ledger is empty")
	s.mustRun("pass", "1")
	s.Contains(s.mustRun("ledger"), "Holographic Principle")
}

func (s *CLISuite) TestSelectThenFuse() {
	s.mustRun("pass", "1")
	s.mustRun("pass", "2")

	s.Contains(s.mustRun("select", "1"), "selected: [1]")
	s.Contains(s.mustRun("select", "2"), "selected: [1, 2]")

	out := s.mustRun("fuse")
	s.Contains(out, "FUSED 1 + 2 INTO fusion_")
	s.Contains(out, "Synthesis: AdS/CFT + QM")

	// The selection was consumed.
	_, err := s.run("fuse")
	s.Error(err)
}

func (s *CLISuite) TestFuseExplicit() {
	s.mustRun("pass", "3")
	s.mustRun("pass", "1")

	out := s.mustRun("fuse", "3", "1")
	s.Contains(out, "Synthesis: Chaos + AdS/CFT")

	_, err := s.run("fuse", "1")
	s.Error(err)

	_, err = s.run("fuse", "1", "1")
	s.Error(err)
}

func (s *CLISuite) TestSelect_RejectsIneligible() {
	_, err := s.run("select", "1")
	s.Error(err)
}

func (s *CLISuite) TestWallet() {
	s.Equal("anonymous\n", s.mustRun("wallet", "show"))

	s.Contains(s.mustRun("wallet", "connect", "0xfeed"), "WALLET CONNECTED: 0xfeed")
	s.Equal("0xfeed\n", s.mustRun("wallet", "show"))

	s.mustRun("pass", "1")
	s.Contains(s.mustRun("audit"), "0xfeed")

	s.Contains(s.mustRun("wallet", "disconnect"), "WALLET DISCONNECTED")
	s.Equal("anonymous\n", s.mustRun("wallet", "show"))
}

func (s *CLISuite) TestClear() {
	s.mustRun("pass", "1")
	s.mustRun("select", "1")

	s.Contains(s.mustRun("clear"), "LEDGER CLEARED")
	s.JSONEq(`[]`, s.mustRun("ledger", "--json"))
	_, err := s.storage.Get(context.Background(), app.SelectionKey)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *CLISuite) TestAudit() {
	s.mustRun("pass", "1")
	s.mustRun("pass", "2")

	out := s.mustRun("audit")
	s.Contains(out, "issuer ok, signer "+s.identity+", 2 mints")
	s.Contains(out, "total: 2")
}

func TestAudit_IssuerUnreachable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Learner{IssuerURL: "http://127.0.0.1:1", MintTimeout: time.Second}
	st := storage.NewMemory()
	root := NewRootCommand(func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, st, logger)
	})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"audit"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to reach issuer")
}
