package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"entangledu/contracts/mint"
	"entangledu/internal/issuer/handler/mocks"
	"entangledu/internal/issuer/models"
	dErrors "entangledu/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) assertStatusAndError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var resp mint.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(code, resp.Error)
}

var sampleCert = models.Certificate{
	ID:        "cert_1",
	LessonID:  "1",
	Title:     "Holographic Principle",
	Recipient: "anonymous",
	Signature: "0x01",
	Hash:      "0x02",
	IssuedAt:  time.UnixMilli(1700000000123).UTC(),
}

func (s *HandlerSuite) TestHandleMint() {
	s.Run("numeric lesson id is accepted and mapped", func() {
		s.service.EXPECT().
			Mint(gomock.Any(), models.MintRequest{Recipient: "anonymous", LessonID: "1", LessonTitle: "Holographic Principle"}).
			Return(&sampleCert, nil)

		w := s.do(http.MethodPost, "/api/mint", `{"to":"anonymous","lessonId":1,"lessonTitle":"Holographic Principle"}`)

		s.Equal(http.StatusOK, w.Code)
		var resp mint.MintResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.Success)
		s.Require().NotNil(resp.Certificate)
		s.Equal(mint.LessonID("1"), resp.Certificate.LessonID)
		s.Equal(int64(1700000000123), resp.Certificate.Timestamp)
	})

	s.Run("malformed body returns 400", func() {
		w := s.do(http.MethodPost, "/api/mint", `{"to":`)
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("fractional lesson id returns 400", func() {
		w := s.do(http.MethodPost, "/api/mint", `{"to":"anonymous","lessonId":1.5}`)
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("invalid request maps to 400", func() {
		s.service.EXPECT().Mint(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidRequest, "to is required"))

		w := s.do(http.MethodPost, "/api/mint", `{"lessonId":"1"}`)
		s.assertStatusAndError(w, http.StatusBadRequest, "invalid_request")
	})

	s.Run("signing failure maps to 500", func() {
		s.service.EXPECT().Mint(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeSigningFailed, "failed to sign certificate"))

		w := s.do(http.MethodPost, "/api/mint", `{"to":"anonymous","lessonId":"1"}`)
		s.assertStatusAndError(w, http.StatusInternalServerError, "signing_failed")
	})
}

func (s *HandlerSuite) TestHandleAudit() {
	s.service.EXPECT().Audit(gomock.Any()).Return(models.AuditResult{
		Total:        1,
		Certificates: []models.Certificate{sampleCert},
	})

	w := s.do(http.MethodGet, "/api/certificates", "")

	s.Equal(http.StatusOK, w.Code)
	var resp mint.AuditResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(1, resp.Total)
	s.Require().Len(resp.Certificates, 1)
	s.Equal("cert_1", resp.Certificates[0].ID)
}

func (s *HandlerSuite) TestHandleAudit_EmptyLogIsAnArray() {
	s.service.EXPECT().Audit(gomock.Any()).Return(models.AuditResult{})

	w := s.do(http.MethodGet, "/api/certificates", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"total":0,"certificates":[]}`, w.Body.String())
}

func (s *HandlerSuite) TestHandleHealth() {
	s.service.EXPECT().Health(gomock.Any()).Return(models.HealthStatus{Status: "ok", Signer: "0xabc", Mints: 2})

	w := s.do(http.MethodGet, "/api/health", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok","signer":"0xabc","mints":2}`, w.Body.String())
}
