// Package httputil holds the JSON response helpers shared by the issuer
// handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "entangledu/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type wireCode struct {
	status int
	name   string
}

var internalWire = wireCode{http.StatusInternalServerError, "internal_error"}

var wireCodes = map[dErrors.Code]wireCode{
	dErrors.CodeNotFound:           {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:         {http.StatusBadRequest, "bad_request"},
	dErrors.CodeInvalidRequest:     {http.StatusBadRequest, "invalid_request"},
	dErrors.CodeInvariantViolation: {http.StatusBadRequest, "validation_error"},
	dErrors.CodeInvalidSelection:   {http.StatusBadRequest, "invalid_selection"},
	dErrors.CodeConflict:           {http.StatusConflict, "conflict"},
	dErrors.CodeMintDenied:         {http.StatusForbidden, "mint_denied"},
	dErrors.CodeTimeout:            {http.StatusGatewayTimeout, "timeout"},
	dErrors.CodeUnavailable:        {http.StatusServiceUnavailable, "unavailable"},
	dErrors.CodeSigningFailed:      {http.StatusInternalServerError, "signing_failed"},
	dErrors.CodeInternal:           internalWire,
}

func lookup(code dErrors.Code) wireCode {
	if wc, ok := wireCodes[code]; ok {
		return wc
	}
	return internalWire
}

// WriteJSON encodes body after the status line; encoding errors are dropped
// since the status can no longer change.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError renders err as an ErrorResponse. Only coded errors expose
// their message; anything else becomes a bare internal_error.
func WriteError(w http.ResponseWriter, err error) {
	e, ok := dErrors.As(err)
	if !ok {
		WriteJSON(w, internalWire.status, ErrorResponse{Error: internalWire.name})
		return
	}
	wc := lookup(e.Code)
	WriteJSON(w, wc.status, ErrorResponse{Error: wc.name, ErrorDescription: e.Message})
}

