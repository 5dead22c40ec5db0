// Package mint holds the JSON shapes of the issuer HTTP API. The issuer
// handler and the learner's issuer client both speak these types, so changing
// a field here changes the wire format for both sides.
package mint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ContractVersion identifies the wire schema. Bump on breaking changes.
const ContractVersion = "v1"

// LessonID accepts a lesson identifier encoded as a JSON string or integer
// and always marshals as a string.
type LessonID string

func (id *LessonID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LessonID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("lessonId must be a string or number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("lessonId must be an integer: %w", err)
	}
	*id = LessonID(n.String())
	return nil
}

// MintRequest is the body of POST /api/mint.
type MintRequest struct {
	To          string   `json:"to"`
	LessonID    LessonID `json:"lessonId"`
	LessonTitle string   `json:"lessonTitle"`
}

// Certificate is the issuer's signed statement. Timestamp is unix milliseconds.
type Certificate struct {
	ID        string   `json:"id"`
	LessonID  LessonID `json:"lessonId"`
	Title     string   `json:"title"`
	Recipient string   `json:"recipient"`
	Signature string   `json:"signature"`
	Hash      string   `json:"hash"`
	Timestamp int64    `json:"timestamp"`
}

// MintResponse is the success body of POST /api/mint. Success is false only
// when an issuer declines without an HTTP error status.
type MintResponse struct {
	Success     bool         `json:"success"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// AuditResponse is the body of GET /api/certificates.
type AuditResponse struct {
	Total        int           `json:"total"`
	Certificates []Certificate `json:"certificates"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	Signer string `json:"signer"`
	Mints  int    `json:"mints"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
