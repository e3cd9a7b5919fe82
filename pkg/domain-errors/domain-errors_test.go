package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: these primitives carry the protocol error taxonomy
// (untrusted_issuer, proof_replay, invalid_proof, ...) across every layer.
// Invariants like "wrapped domain errors preserve the original code" must hold
// or replay rejections would surface as internal errors at the transport.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeProofReplay, Message: "nullifier already consumed"}
		s.Equal("nullifier already consumed", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeProofReplay}
		s.Equal("proof_replay", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("ledger insert failed")
		err := &Error{Code: CodeInternal, Message: "service error", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("works with errors.Unwrap", func() {
		inner := errors.New("root cause")
		err := &Error{Code: CodeInternal, Err: inner}
		s.Equal(inner, errors.Unwrap(err))
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeCredentialInvalid, Message: "expired"}
		err2 := &Error{Code: CodeCredentialInvalid, Message: "revoked"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeProofReplay}
		err2 := &Error{Code: CodeInvalidProof}
		s.False(err1.Is(err2))
	})

	s.Run("does not match non-domain errors", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := errors.New("not found")
		s.False(err1.Is(err2))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	s.Run("preserves original domain code through wrapping", func() {
		original := New(CodeUntrustedIssuer, "issuer removed")
		wrapped := Wrap(original, CodeInternal, "issuance failed")
		s.True(HasCode(wrapped, CodeUntrustedIssuer))
		s.False(HasCode(wrapped, CodeInternal))
	})

	s.Run("applies code to plain errors", func() {
		wrapped := Wrap(errors.New("io failure"), CodeInternal, "store failed")
		s.True(HasCode(wrapped, CodeInternal))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("finds code through error chains", func() {
		err := Wrap(New(CodeInvalidExpiry, "expiry in the past"), CodeBadRequest, "bad request")
		s.True(HasCode(err, CodeInvalidExpiry))
	})

	s.Run("false for nil error", func() {
		s.False(HasCode(nil, CodeNotFound))
	})
}
