package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "entangledu/pkg/domain-errors"
)

func TestRunConcurrent_TalliesByCode(t *testing.T) {
	out := RunConcurrent(12, func(idx int) error {
		switch idx % 4 {
		case 0:
			return nil
		case 1:
			return dErrors.Wrap(errors.New("dup"), dErrors.CodeConflict, "already exists")
		case 2:
			return dErrors.New(dErrors.CodeUnavailable, "issuer down")
		default:
			return errors.New("boom")
		}
	})

	assert.Equal(t, 3, out.Successes)
	assert.Equal(t, 3, out.Conflicts())
	assert.Equal(t, 6, out.Failures())
	assert.Equal(t, 3, out.ByCode[dErrors.CodeUnavailable])
	assert.Equal(t, 3, out.ByCode[dErrors.CodeInternal])
	assert.Equal(t, 12, out.Total())
}
