package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, ReadinessResponse) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestLiveness(t *testing.T) {
	h := New()
	h.RegisterCheck("signer", func(context.Context) error { return errors.New("no key") })

	w, resp := serve(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", resp.Status)
}

func TestReadiness(t *testing.T) {
	t.Run("all checks up", func(t *testing.T) {
		h := New()
		h.RegisterCheck("signer", func(context.Context) error { return nil })

		w, resp := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]string{"signer": "up"}, resp.Checks)
	})

	t.Run("one failing check makes it not ready", func(t *testing.T) {
		h := New()
		h.RegisterCheck("signer", func(context.Context) error { return nil })
		h.RegisterCheck("mint_log", func(context.Context) error { return errors.New("closed") })

		w, resp := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "down: closed", resp.Checks["mint_log"])
		assert.Equal(t, "up", resp.Checks["signer"])
	})

	t.Run("checks get a deadline", func(t *testing.T) {
		h := New()
		h.RegisterCheck("signer", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			if !ok {
				return errors.New("no deadline")
			}
			return nil
		})
		w, _ := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
