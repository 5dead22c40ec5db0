package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "entangledu/pkg/domain-errors"
)

// Validatable is implemented by request types that check their own fields.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that canonicalize fields
// before Validate sees them.
type Normalizable interface {
	Normalize()
}

// PrepareRequest runs Normalize then Validate on req, whichever it implements.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	return v.Validate()
}

// DecodeAndPrepare reads a JSON body into a fresh T and prepares it. When it
// returns false the error response has already been written.
//
//	req, ok := httputil.DecodeAndPrepare[mint.MintRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)

	var failure error
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err, "request_id", requestID)
		failure = dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	} else if err := PrepareRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid request", "error", err, "request_id", requestID)
		failure = err
		if _, coded := dErrors.As(err); !coded {
			failure = dErrors.New(dErrors.CodeInvalidRequest, err.Error())
		}
	}

	if failure != nil {
		WriteError(w, failure)
		return nil, false
	}
	return req, true
}
