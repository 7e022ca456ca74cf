// Package storagetest holds the behavior every storage backend must share.
// Backend packages run it from their own tests.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

// Suite is a testify suite exercising a storage.Storage implementation
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func(t *testing.T) storage.Storage

	store storage.Storage
	ctx   context.Context
	now   time.Time
}

func (s *Suite) SetupTest() {
	s.store = s.NewStorage(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *Suite) newUser(id, handle string) *model.User {
	s.now = s.now.Add(time.Second)
	return &model.User{
		ID:                   model.UserID(id),
		Handle:               handle,
		DisplayCode:          1234,
		QuizAnswers:          model.QuizAnswers{"q1": "X"},
		VerificationQuestion: "favourite colour?",
		VerificationAnswer:   "blue",
		CreatedAt:            s.now,
	}
}

func (s *Suite) createUsers(ids ...string) {
	for _, id := range ids {
		s.Require().NoError(s.store.CreateUser(s.ctx, s.newUser(id, "handle-"+id)))
	}
}

func (s *Suite) pair(a, b model.UserID, matchID model.MatchID, status model.MatchStatus) {
	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.SetPartner(ctx, a, b); err != nil {
			return err
		}
		if err := tx.SetPartner(ctx, b, a); err != nil {
			return err
		}
		return tx.CreateMatch(ctx, &model.Match{ID: matchID, UserA: a, UserB: b, Status: status, CreatedAt: s.now})
	})
	s.Require().NoError(err)
}

// User tests

func (s *Suite) TestCreateAndGetUser() {
	user := s.newUser("u1", "ayse")
	user.QuizAnswers = model.QuizAnswers{"q1": "X", "q2": "Y"}

	s.Require().NoError(s.store.CreateUser(s.ctx, user))

	got, err := s.store.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("ayse", got.Handle)
	s.Equal(1234, got.DisplayCode)
	s.Equal(user.QuizAnswers, got.QuizAnswers)
	s.Equal("favourite colour?", got.VerificationQuestion)
	s.Equal("blue", got.VerificationAnswer)
	s.Nil(got.PartnerID)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.store.GetUser(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestCreateUserDuplicateHandle() {
	s.Require().NoError(s.store.CreateUser(s.ctx, s.newUser("u1", "ayse")))

	err := s.store.CreateUser(s.ctx, s.newUser("u2", "ayse"))
	s.ErrorIs(err, model.ErrDuplicateHandle)

	_, err = s.store.GetUser(s.ctx, "u2")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestReturnedUserIsACopy() {
	s.createUsers("u1")

	got, err := s.store.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	got.QuizAnswers["q1"] = "changed"

	again, err := s.store.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("X", again.QuizAnswers["q1"])
}

func (s *Suite) TestListUnmatchedInRegistrationOrder() {
	s.createUsers("c", "a", "d", "b")
	s.pair("a", "d", "m1", model.MatchStatusVerified)

	users, err := s.store.ListUnmatched(s.ctx)
	s.Require().NoError(err)

	ids := make([]model.UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	s.Equal([]model.UserID{"c", "b"}, ids)
}

func (s *Suite) TestListUnmatchedEmpty() {
	users, err := s.store.ListUnmatched(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

// Transaction tests

func (s *Suite) TestTxCommitsAllWrites() {
	s.createUsers("a", "b")
	s.pair("a", "b", "m1", model.MatchStatusVerified)

	a, err := s.store.GetUser(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().NotNil(a.PartnerID)
	s.Equal(model.UserID("b"), *a.PartnerID)

	b, err := s.store.GetUser(s.ctx, "b")
	s.Require().NoError(err)
	s.Require().NotNil(b.PartnerID)
	s.Equal(model.UserID("a"), *b.PartnerID)

	count, err := s.store.CountMatches(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestTxErrorDiscardsAllWrites() {
	s.createUsers("a", "b")
	boom := errors.New("boom")

	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		s.Require().NoError(tx.SetPartner(ctx, "a", "b"))
		s.Require().NoError(tx.SetPartner(ctx, "b", "a"))
		s.Require().NoError(tx.CreateMatch(ctx, &model.Match{ID: "m1", UserA: "a", UserB: "b", Status: model.MatchStatusVerified, CreatedAt: s.now}))
		return boom
	})
	s.ErrorIs(err, boom)

	users, err := s.store.ListUnmatched(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)

	match, err := s.store.FindActiveMatchForUser(s.ctx, "a")
	s.Require().NoError(err)
	s.Nil(match)
}

func (s *Suite) TestTxSetPartnerUnknownUser() {
	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.SetPartner(ctx, "missing", "other")
	})
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestTxClearPartner() {
	s.createUsers("a", "b")
	s.pair("a", "b", "m1", model.MatchStatusVerified)

	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.ClearPartner(ctx, "b")
	})
	s.Require().NoError(err)

	b, err := s.store.GetUser(s.ctx, "b")
	s.Require().NoError(err)
	s.Nil(b.PartnerID)
}

func (s *Suite) TestConcurrentTxAreSerialized() {
	s.createUsers("a", "b", "c")

	// Each writer claims "a" only if still unmatched; exactly one may succeed
	var wg sync.WaitGroup
	claims := make(chan model.UserID, 2)
	for _, partner := range []model.UserID{"b", "c"} {
		wg.Add(1)
		go func(partner model.UserID) {
			defer wg.Done()
			_ = s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
				a, err := tx.GetUser(ctx, "a")
				if err != nil || !a.IsEligible() {
					return err
				}
				if err := tx.SetPartner(ctx, "a", partner); err != nil {
					return err
				}
				claims <- partner
				return nil
			})
		}(partner)
	}
	wg.Wait()
	close(claims)

	var claimed []model.UserID
	for c := range claims {
		claimed = append(claimed, c)
	}
	s.Len(claimed, 1)

	a, err := s.store.GetUser(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().NotNil(a.PartnerID)
	s.Equal(claimed[0], *a.PartnerID)
}

func (s *Suite) TestWithTxCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		called = true
		return nil
	})
	if err != nil {
		s.False(called)
	}
}

// Match tests

func (s *Suite) TestFindActiveMatchFromEitherSide() {
	s.createUsers("a", "b")
	s.pair("a", "b", "m1", model.MatchStatusVerified)

	for _, id := range []model.UserID{"a", "b"} {
		match, err := s.store.FindActiveMatchForUser(s.ctx, id)
		s.Require().NoError(err)
		s.Require().NotNil(match)
		s.Equal(model.MatchID("m1"), match.ID)
		s.Equal(model.UserID("a"), match.UserA)
		s.Equal(model.UserID("b"), match.UserB)
		s.Equal(model.MatchStatusVerified, match.Status)
	}
}

func (s *Suite) TestFindActiveMatchIgnoresExpired() {
	s.createUsers("a", "b")
	s.pair("a", "b", "m1", model.MatchStatusExpired)

	match, err := s.store.FindActiveMatchForUser(s.ctx, "a")
	s.Require().NoError(err)
	s.Nil(match)
}

func (s *Suite) TestFindActiveMatchNone() {
	match, err := s.store.FindActiveMatchForUser(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Nil(match)
}

func (s *Suite) TestDeleteUserAndMatches() {
	s.createUsers("a", "b", "c", "d")
	s.pair("a", "b", "m1", model.MatchStatusVerified)
	s.pair("c", "d", "m2", model.MatchStatusVerified)

	var removed []*model.Match
	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		removed, err = tx.DeleteMatchesForUser(ctx, "b")
		if err != nil {
			return err
		}
		return tx.DeleteUser(ctx, "b")
	})
	s.Require().NoError(err)
	s.Require().Len(removed, 1)
	s.Equal(model.MatchID("m1"), removed[0].ID)

	_, err = s.store.GetUser(s.ctx, "b")
	s.ErrorIs(err, model.ErrUserNotFound)

	match, err := s.store.FindActiveMatchForUser(s.ctx, "a")
	s.Require().NoError(err)
	s.Nil(match, "partner's match must be gone too")

	match, err = s.store.FindActiveMatchForUser(s.ctx, "c")
	s.Require().NoError(err)
	s.NotNil(match, "unrelated match must survive")

	users, err := s.store.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, users)
}

func (s *Suite) TestDeleteUserFreesHandle() {
	s.Require().NoError(s.store.CreateUser(s.ctx, s.newUser("u1", "ayse")))

	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.DeleteUser(ctx, "u1")
	})
	s.Require().NoError(err)

	s.NoError(s.store.CreateUser(s.ctx, s.newUser("u2", "ayse")))
}

func (s *Suite) TestDeleteUnknownUserIsNoop() {
	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		removed, err := tx.DeleteMatchesForUser(ctx, "missing")
		if err != nil {
			return err
		}
		s.Empty(removed)
		return tx.DeleteUser(ctx, "missing")
	})
	s.NoError(err)
}

// Question catalog tests

func (s *Suite) TestSaveAndListQuestionsSorted() {
	questions := []model.Question{
		{ShortID: "second", Text: "Second?", Options: []string{"a", "b"}, SortOrder: 1},
		{ShortID: "first", Text: "First?", Options: []string{"x"}, SortOrder: 0},
	}
	s.Require().NoError(s.store.SaveQuestions(s.ctx, questions))

	got, err := s.store.ListQuestions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("first", got[0].ShortID)
	s.Equal("second", got[1].ShortID)
	s.Equal([]string{"a", "b"}, got[1].Options)
}

func (s *Suite) TestListQuestionsEmpty() {
	got, err := s.store.ListQuestions(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)
}

// Aggregate tests

func (s *Suite) TestCounts() {
	s.createUsers("a", "b", "c")
	s.pair("a", "b", "m1", model.MatchStatusVerified)

	users, err := s.store.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, users)

	matches, err := s.store.CountMatches(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, matches)
}
