package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessage() {
	s.Equal("credential 7 already exists", New(CodeConflict, "credential 7 already exists").Error())
	s.Equal("not_found", (&Error{Code: CodeNotFound}).Error())
	s.Equal("issuer returned status 502", Newf(CodeUnavailable, "issuer returned status %d", 502).Error())
}

func (s *DomainErrorsSuite) TestMatchingByCode() {
	denied := New(CodeMintDenied, "lesson retired")

	s.True(errors.Is(denied, &Error{Code: CodeMintDenied}))
	s.False(errors.Is(denied, &Error{Code: CodeUnavailable}))
	s.False(errors.Is(denied, errors.New("lesson retired")))

	s.Run("through fmt wrapping", func() {
		wrapped := fmt.Errorf("pass lesson: %w", denied)
		s.True(errors.Is(wrapped, &Error{Code: CodeMintDenied}))
		s.True(HasCode(wrapped, CodeMintDenied))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the code of a coded cause", func() {
		cause := New(CodeSigningFailed, "no key")
		err := Wrap(cause, CodeInternal, "mint failed")

		e, ok := As(err)
		s.Require().True(ok)
		s.Equal(CodeSigningFailed, e.Code)
		s.Equal("mint failed", e.Message)
		s.Same(cause, e.Unwrap())
	})

	s.Run("applies the code to a foreign cause", func() {
		cause := errors.New("database is locked")
		err := Wrap(cause, CodeInternal, "write slot")

		s.Equal(CodeInternal, CodeOf(err))
		s.ErrorIs(err, cause)
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeInvalidSelection, CodeOf(New(CodeInvalidSelection, "pick two")))
	s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	s.Equal(CodeInternal, CodeOf(nil))
	s.False(HasCode(nil, CodeNotFound))

	_, ok := As(errors.New("plain"))
	s.False(ok)
}
