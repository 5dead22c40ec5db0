package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"entangledu/contracts/mint"
)

const (
	// ProtocolVersion is baked into every signed payload so a future encoding
	// can be told apart from this one.
	ProtocolVersion = "ENTANGLEDU_V1"

	// HealthStatusOK is the only status a running issuer reports.
	HealthStatusOK = "ok"

	certificateIDPrefix = "cert_"
)

// CertificateID is the prefixed identifier of one mint log entry.
type CertificateID string

// NewCertificateID generates a new certificate ID with a stable prefix.
func NewCertificateID() CertificateID {
	return CertificateID(certificateIDPrefix + uuid.NewString())
}

func (id CertificateID) String() string {
	return string(id)
}

// MintRequest captures what the learner asks the issuer to attest.
type MintRequest struct {
	Recipient   string
	LessonID    string
	LessonTitle string
}

// Normalize trims surrounding whitespace from every field.
func (r *MintRequest) Normalize() {
	r.Recipient = strings.TrimSpace(r.Recipient)
	r.LessonID = strings.TrimSpace(r.LessonID)
	r.LessonTitle = strings.TrimSpace(r.LessonTitle)
}

// Certificate is one signed mint log entry. Hash and Signature are 0x-prefixed hex.
// IssuedAt has millisecond precision; it is the exact instant that was signed.
type Certificate struct {
	ID        CertificateID
	LessonID  string
	Title     string
	Recipient string
	Signature string
	Hash      string
	IssuedAt  time.Time
}

// IssuedAtMillis returns the signed timestamp as unix milliseconds.
func (c Certificate) IssuedAtMillis() int64 {
	return c.IssuedAt.UnixMilli()
}

// ToContract converts the certificate to its wire form.
func (c Certificate) ToContract() mint.Certificate {
	return mint.Certificate{
		ID:        c.ID.String(),
		LessonID:  mint.LessonID(c.LessonID),
		Title:     c.Title,
		Recipient: c.Recipient,
		Signature: c.Signature,
		Hash:      c.Hash,
		Timestamp: c.IssuedAtMillis(),
	}
}

// AuditResult is the full mint log in issuance order.
type AuditResult struct {
	Total        int
	Certificates []Certificate
}

// HealthStatus is the issuer's diagnostic summary.
type HealthStatus struct {
	Status string
	Signer string
	Mints  int
}
