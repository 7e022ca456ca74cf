package auth

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/comate/comate/internal/testutil"
)

type GuardSuite struct {
	suite.Suite
	hash string
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupSuite() {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.hash = string(hash)
}

func (s *GuardSuite) TestCorrectKey() {
	guard, err := NewGuard(s.hash, testutil.NopLogger())
	s.Require().NoError(err)

	s.False(guard.Open())
	s.NoError(guard.Check("s3cret"))
}

func (s *GuardSuite) TestWrongOrMissingKey() {
	guard, err := NewGuard(s.hash, testutil.NopLogger())
	s.Require().NoError(err)

	s.ErrorIs(guard.Check("wrong"), ErrUnauthorized)
	s.ErrorIs(guard.Check(""), ErrUnauthorized)
}

func (s *GuardSuite) TestOpenGuardAllowsEverything() {
	guard, err := NewGuard("", testutil.NopLogger())
	s.Require().NoError(err)

	s.True(guard.Open())
	s.NoError(guard.Check(""))
	s.NoError(guard.Check("anything"))
}

func (s *GuardSuite) TestRejectsMalformedHash() {
	_, err := NewGuard("plaintext-key", testutil.NopLogger())
	s.ErrorIs(err, ErrInvalidKeyHash)
}

func (s *GuardSuite) TestHashKeyRoundTrip() {
	hash, err := HashKey("another")
	s.Require().NoError(err)

	guard, err := NewGuard(hash, testutil.NopLogger())
	s.Require().NoError(err)
	s.NoError(guard.Check("another"))

	_, err = HashKey("")
	s.Error(err)
}
