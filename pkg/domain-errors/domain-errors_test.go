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

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "persona no encontrada"}
		s.Equal("persona no encontrada", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeConflict}
		s.Equal("conflict", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	inner := &Error{Code: CodeNotFound, Message: "original"}
	wrapped := fmt.Errorf("store: %w", inner)

	s.True(errors.Is(wrapped, &Error{Code: CodeNotFound}))
	s.False(errors.Is(wrapped, &Error{Code: CodeInternal}))
	s.False(inner.Is(errors.New("not_found")))
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	s.Run("keeps existing domain code", func() {
		base := New(CodeConflict, "cedula duplicada")
		err := Wrap(base, CodeInternal, "create abogado")
		s.True(HasCode(err, CodeConflict))
		s.Equal("create abogado", err.Error())
	})

	s.Run("applies code to plain errors", func() {
		err := Wrap(errors.New("connection reset"), CodeInternal, "query failed")
		s.True(HasCode(err, CodeInternal))
		s.ErrorContains(errors.Unwrap(err), "connection reset")
	})
}

func (s *DomainErrorsSuite) TestHasCodeOnNonDomainError() {
	s.False(HasCode(errors.New("boom"), CodeInternal))
	s.False(HasCode(nil, CodeInternal))
}
