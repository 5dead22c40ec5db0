package testutil

import (
	"time"

	"entangledu/internal/ledger/models"
)

// FixedTime is the default timestamp of built credentials.
var FixedTime = models.Millis(1_700_000_000_000)

// Test proof material. It is well formed hex but signs nothing.
const (
	TestHash      = "0x1111111111111111111111111111111111111111111111111111111111111111"
	TestSignature = "0x22222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222222221b"
)

// CredentialBuilder provides a fluent interface for building ledger credentials.
type CredentialBuilder struct {
	cred models.Credential
}

// NewCredentialBuilder starts a KNOWLEDGE credential for id.
func NewCredentialBuilder(id string) *CredentialBuilder {
	return &CredentialBuilder{
		cred: models.Credential{
			ID:        id,
			Title:     "Lesson " + id,
			Kind:      models.KindKnowledge,
			Timestamp: FixedTime,
		},
	}
}

func (b *CredentialBuilder) WithTitle(title string) *CredentialBuilder {
	b.cred.Title = title
	return b
}

func (b *CredentialBuilder) WithTimestamp(t time.Time) *CredentialBuilder {
	b.cred.Timestamp = models.Truncate(t)
	return b
}

// Verified makes the credential a VERIFIED_PROOF carrying the test proof.
func (b *CredentialBuilder) Verified() *CredentialBuilder {
	b.cred.Kind = models.KindVerifiedProof
	b.cred.Hash = TestHash
	b.cred.Signature = TestSignature
	return b
}

func (b *CredentialBuilder) Unverified() *CredentialBuilder {
	b.cred.Kind = models.KindUnverifiedLocal
	b.cred.Hash, b.cred.Signature = "", ""
	return b
}

// FusionOf makes the credential a FUSION of a and b.
func (b *CredentialBuilder) FusionOf(a, c string) *CredentialBuilder {
	b.cred.Kind = models.KindFusion
	b.cred.Hash, b.cred.Signature = "", ""
	b.cred.SourceIDs = []string{a, c}
	return b
}

func (b *CredentialBuilder) Build() models.Credential {
	return b.cred.Clone()
}

// Knowledge is shorthand for NewCredentialBuilder(id).Build().
func Knowledge(id string) models.Credential {
	return NewCredentialBuilder(id).Build()
}
