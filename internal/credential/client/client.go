// Package client talks to the issuer HTTP API on behalf of the learner.
//
// Failures are split in two: the issuer answered and declined (CodeMintDenied),
// or the issuer could not be used at all (CodeUnavailable). Malformed
// responses count as the latter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"entangledu/contracts/mint"
	dErrors "entangledu/pkg/domain-errors"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the issuer client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

type Client struct {
	baseURL string
	client  HTTPDoer
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  doer,
	}
}

// Mint asks the issuer to sign a completion event.
func (c *Client) Mint(ctx context.Context, req mint.MintRequest) (*mint.Certificate, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal mint request")
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/api/mint", body)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, classifyFailure(status, respBody)
	}

	var resp mint.MintResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed mint response")
	}
	if !resp.Success {
		return nil, dErrors.New(dErrors.CodeMintDenied, denialMessage(resp.Error, "mint declined"))
	}
	if resp.Certificate == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "mint response has no certificate")
	}
	return resp.Certificate, nil
}

// Audit fetches the issuer's full mint log.
func (c *Client) Audit(ctx context.Context) (*mint.AuditResponse, error) {
	var resp mint.AuditResponse
	if err := c.getJSON(ctx, "/api/certificates", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*mint.HealthResponse, error) {
	var resp mint.HealthResponse
	if err := c.getJSON(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return dErrors.Newf(dErrors.CodeUnavailable, "issuer returned status %d", status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed issuer response")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "issuer request timed out")
		}
		return 0, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "issuer unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read issuer response")
	}
	return resp.StatusCode, respBody, nil
}

// unusableCodes are envelope codes that describe the issuer's own state
// rather than a decision about the request.
var unusableCodes = map[string]bool{
	"timeout":        true,
	"unavailable":    true,
	"internal_error": true,
	"signing_failed": true,
}

// classifyFailure maps a non-2xx mint reply. Only a 4xx carrying an error
// envelope is a denial; 408, 429, every 5xx, and envelopes naming an
// issuer-side fault mean the issuer could not be used.
func classifyFailure(status int, body []byte) error {
	var errResp mint.ErrorResponse
	if json.Unmarshal(body, &errResp) != nil || errResp.Error == "" {
		return dErrors.Newf(dErrors.CodeUnavailable, "issuer returned status %d", status)
	}
	switch {
	case status >= 500,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		unusableCodes[errResp.Error]:
		return dErrors.Newf(dErrors.CodeUnavailable, "issuer returned status %d: %s",
			status, denialMessage(errResp.ErrorDescription, errResp.Error))
	}
	return dErrors.New(dErrors.CodeMintDenied, denialMessage(errResp.ErrorDescription, errResp.Error))
}

func denialMessage(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
