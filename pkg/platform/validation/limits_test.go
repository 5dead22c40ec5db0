package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "entangledu/pkg/domain-errors"
)

// LimitsSuite covers the boundary cases: max must pass, max+1 must fail.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes at max", func() {
		s.NoError(CheckStringLength("lessonTitle", strings.Repeat("a", MaxLessonTitleLength), MaxLessonTitleLength))
	})

	s.Run("passes when empty", func() {
		s.NoError(CheckStringLength("lessonTitle", "", MaxLessonTitleLength))
	})

	s.Run("fails past max", func() {
		err := CheckStringLength("lessonTitle", strings.Repeat("a", MaxLessonTitleLength+1), MaxLessonTitleLength)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
		s.Contains(err.Error(), "lessonTitle exceeds max length of 256")
	})

	s.Run("counts bytes not runes", func() {
		s.Error(CheckStringLength("to", strings.Repeat("é", 3), 5))
	})
}

func (s *LimitsSuite) TestCheckFields() {
	s.Run("reports the first missing required field", func() {
		err := CheckFields(
			Field{Name: "to", Value: "", Max: MaxRecipientLength, Required: true},
			Field{Name: "lessonId", Value: "", Max: MaxLessonIDLength, Required: true},
		)
		s.Require().Error(err)
		s.Equal("to is required", err.Error())
	})

	s.Run("optional fields may be empty", func() {
		s.NoError(CheckFields(Field{Name: "lessonTitle", Value: "", Max: MaxLessonTitleLength}))
	})

	s.Run("length applies to optional fields", func() {
		err := CheckFields(Field{Name: "lessonTitle", Value: strings.Repeat("x", 300), Max: MaxLessonTitleLength})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
	})
}
