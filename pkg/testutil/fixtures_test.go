package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"entangledu/internal/ledger/models"
)

func TestCredentialBuilder_BuildsValidCredentials(t *testing.T) {
	creds := []models.Credential{
		Knowledge("1"),
		NewCredentialBuilder("2").Verified().Build(),
		NewCredentialBuilder("3").Unverified().Build(),
		NewCredentialBuilder("fusion_x").WithTitle("Synthesis: QM + Chaos").FusionOf("2", "3").Build(),
	}
	for _, c := range creds {
		assert.NoError(t, c.Validate(), c.ID)
	}
}

func TestCredentialBuilder_BuildCopiesSources(t *testing.T) {
	b := NewCredentialBuilder("f").FusionOf("1", "2")
	first := b.Build()
	first.SourceIDs[0] = "mutated"
	assert.Equal(t, []string{"1", "2"}, b.Build().SourceIDs)
}
