package lifecycle

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
	"github.com/comate/comate/internal/storage/memory"
	"github.com/comate/comate/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger(), Config{})
	s.ctx = context.Background()
}

func (s *ServiceSuite) addUser(id, handle string, code int, answers model.QuizAnswers) model.UserID {
	err := s.storage.CreateUser(s.ctx, &model.User{
		ID:                   model.UserID(id),
		Handle:               handle,
		DisplayCode:          code,
		QuizAnswers:          answers,
		VerificationQuestion: handle + "'s question",
		VerificationAnswer:   handle + "'s answer",
		CreatedAt:            time.Now(),
	})
	s.Require().NoError(err)
	return model.UserID(id)
}

func (s *ServiceSuite) pair(a, b model.UserID, status model.MatchStatus) {
	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.SetPartner(ctx, a, b); err != nil {
			return err
		}
		if err := tx.SetPartner(ctx, b, a); err != nil {
			return err
		}
		return tx.CreateMatch(ctx, &model.Match{ID: "m1", UserA: a, UserB: b, Status: status, CreatedAt: time.Now()})
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) ayseAndBeyza() (model.UserID, model.UserID) {
	ayse := s.addUser("u-ayse", "Ayşe", 1234, model.QuizAnswers{"q1": "X", "q2": "Y"})
	beyza := s.addUser("u-beyza", "Beyza", 5678, model.QuizAnswers{"q1": "X", "q2": "Z"})
	s.pair(ayse, beyza, model.MatchStatusVerified)
	return ayse, beyza
}

// Status tests

func (s *ServiceSuite) TestStatusUnknownUserIsIdle() {
	status, err := s.service.Status(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Equal(model.StatusIdle, status.State)
	s.Nil(status.Self)
	s.Nil(status.Partner)
}

func (s *ServiceSuite) TestStatusWithoutMatchIsIdle() {
	id := s.addUser("u1", "solo", 1111, nil)

	status, err := s.service.Status(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.StatusIdle, status.State)
}

func (s *ServiceSuite) TestStatusMatchedHidesPartnerHandle() {
	ayse, beyza := s.ayseAndBeyza()

	status, err := s.service.Status(s.ctx, ayse)
	s.Require().NoError(err)

	s.Equal(model.StatusMatched, status.State)
	s.Equal(model.MatchID("m1"), status.MatchID)

	s.Require().NotNil(status.Self)
	s.Equal("Ayşe", status.Self.Handle)
	s.Equal(1234, status.Self.DisplayCode)
	s.Equal("Ayşe's question", status.Self.VerificationQuestion)
	s.Equal(model.QuizAnswers{"q1": "X", "q2": "Y"}, status.Self.QuizAnswers)

	s.Require().NotNil(status.Partner)
	s.Equal(model.HiddenHandle, status.Partner.Handle)
	s.Equal(5678, status.Partner.DisplayCode)
	s.Equal("Beyza's question", status.Partner.VerificationQuestion)
	s.Equal("Beyza's answer", status.Partner.VerificationAnswer)
	s.Equal(model.QuizAnswers{"q1": "X", "q2": "Z"}, status.Partner.QuizAnswers)

	// Side B sees the mirror image
	status, err = s.service.Status(s.ctx, beyza)
	s.Require().NoError(err)
	s.Equal(model.StatusMatched, status.State)
	s.Equal("Beyza", status.Self.Handle)
	s.Equal(model.HiddenHandle, status.Partner.Handle)
	s.Equal(1234, status.Partner.DisplayCode)
}

func (s *ServiceSuite) TestStatusPendingMatch() {
	a := s.addUser("a", "a", 1000, nil)
	b := s.addUser("b", "b", 2000, nil)
	s.pair(a, b, model.MatchStatusPending)

	status, err := s.service.Status(s.ctx, a)
	s.Require().NoError(err)
	s.Equal(model.StatusPendingVerification, status.State)
}

func (s *ServiceSuite) TestStatusExpiredMatchIsIdle() {
	a := s.addUser("a", "a", 1000, nil)
	b := s.addUser("b", "b", 2000, nil)
	s.pair(a, b, model.MatchStatusExpired)

	status, err := s.service.Status(s.ctx, a)
	s.Require().NoError(err)
	s.Equal(model.StatusIdle, status.State)
}

func (s *ServiceSuite) TestStatusIsIdempotent() {
	ayse, _ := s.ayseAndBeyza()

	first, err := s.service.Status(s.ctx, ayse)
	s.Require().NoError(err)
	second, err := s.service.Status(s.ctx, ayse)
	s.Require().NoError(err)

	s.Equal(first, second)
}

// Verify tests

func (s *ServiceSuite) TestVerifyAcceptsAnyCodeRepresentation() {
	ayse, _ := s.ayseAndBeyza()

	for _, code := range []any{"5678", 5678, float64(5678), " 5678 ", "5678\n", json.Number("5678"), int64(5678)} {
		result, err := s.service.Verify(s.ctx, ayse, code)
		s.Require().NoError(err)
		s.True(result.Success, "code %#v", code)
	}
}

func (s *ServiceSuite) TestVerifyWrongCodeEchoesSubmission() {
	ayse, _ := s.ayseAndBeyza()

	result, err := s.service.Verify(s.ctx, ayse, " 1111 ")
	s.Require().NoError(err)
	s.False(result.Success)
	s.Equal("1111", result.Submitted)
}

func (s *ServiceSuite) TestVerifyOwnCodeFails() {
	ayse, _ := s.ayseAndBeyza()

	result, err := s.service.Verify(s.ctx, ayse, 1234)
	s.Require().NoError(err)
	s.False(result.Success)
}

func (s *ServiceSuite) TestVerifyWithoutMatch() {
	id := s.addUser("u1", "solo", 1111, nil)

	_, err := s.service.Verify(s.ctx, id, "1111")
	s.ErrorIs(err, model.ErrNoActiveMatch)

	_, err = s.service.Verify(s.ctx, "nobody", "1111")
	s.ErrorIs(err, model.ErrNoActiveMatch)
}

func (s *ServiceSuite) TestVerifyDoesNotMutate() {
	ayse, beyza := s.ayseAndBeyza()
	before, err := s.service.Status(s.ctx, beyza)
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, ayse, "5678")
	s.Require().NoError(err)
	_, err = s.service.Verify(s.ctx, ayse, "0000")
	s.Require().NoError(err)

	after, err := s.service.Status(s.ctx, beyza)
	s.Require().NoError(err)
	s.Equal(before, after)
}

// Leave tests

func (s *ServiceSuite) TestLeaveRemovesUserAndReciprocalMatch() {
	ayse, beyza := s.ayseAndBeyza()

	s.Require().NoError(s.service.Leave(s.ctx, ayse))

	_, err := s.storage.GetUser(s.ctx, ayse)
	s.ErrorIs(err, model.ErrUserNotFound)

	match, err := s.storage.FindActiveMatchForUser(s.ctx, beyza)
	s.Require().NoError(err)
	s.Nil(match)

	status, err := s.service.Status(s.ctx, beyza)
	s.Require().NoError(err)
	s.Equal(model.StatusIdle, status.State)
}

func (s *ServiceSuite) TestLeaveKeepsPartnerPointerByDefault() {
	ayse, beyza := s.ayseAndBeyza()

	s.Require().NoError(s.service.Leave(s.ctx, ayse))

	remaining, err := s.storage.GetUser(s.ctx, beyza)
	s.Require().NoError(err)
	s.Require().NotNil(remaining.PartnerID)
	s.Equal(ayse, *remaining.PartnerID)
	s.False(remaining.IsEligible())
}

func (s *ServiceSuite) TestLeaveReleasesPartnerWhenConfigured() {
	service := New(s.storage, testutil.NopLogger(), Config{ReleasePartnerOnLeave: true})
	ayse, beyza := s.ayseAndBeyza()

	s.Require().NoError(service.Leave(s.ctx, ayse))

	remaining, err := s.storage.GetUser(s.ctx, beyza)
	s.Require().NoError(err)
	s.Nil(remaining.PartnerID)

	unmatched, err := s.storage.ListUnmatched(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(unmatched, 1)
	s.Equal(beyza, unmatched[0].ID)
}

func (s *ServiceSuite) TestLeaveIsIdempotent() {
	id := s.addUser("u1", "solo", 1111, nil)

	s.NoError(s.service.Leave(s.ctx, id))
	s.NoError(s.service.Leave(s.ctx, id))
	s.NoError(s.service.Leave(s.ctx, "never-existed"))
}

func (s *ServiceSuite) TestLeaveFreesHandle() {
	id := s.addUser("u1", "solo", 1111, nil)
	s.Require().NoError(s.service.Leave(s.ctx, id))

	s.NoError(s.storage.CreateUser(s.ctx, &model.User{ID: "u2", Handle: "solo"}))
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name string
		code any
		want string
	}{
		{"string", "1234", "1234"},
		{"padded string", "  1234\t", "1234"},
		{"int", 1234, "1234"},
		{"int64", int64(1234), "1234"},
		{"float64 from JSON", float64(1234), "1234"},
		{"fractional float", 12.5, "12.5"},
		{"json number", json.Number(" 1234 "), "1234"},
		{"json number with fraction zero", json.Number("1234.0"), "1234"},
		{"json number in exponent form", json.Number("1.234e3"), "1234"},
		{"unparsable json number", json.Number(" 12ab "), "12ab"},
		{"nil", nil, ""},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCode(tt.code))
		})
	}
}
