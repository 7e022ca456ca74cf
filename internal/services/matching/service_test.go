package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/comate/comate/internal/dependencies/mocks"
	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
	"github.com/comate/comate/internal/storage/memory"
	"github.com/comate/comate/internal/testutil"
)

var errInjected = errors.New("injected failure")

// failingStorage fails the failOn-th CreateMatch inside a transaction
type failingStorage struct {
	storage.Storage
	failOn int
}

func (f *failingStorage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return f.Storage.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return fn(ctx, &failingTx{Tx: tx, failOn: f.failOn})
	})
}

type failingTx struct {
	storage.Tx
	failOn  int
	creates int
}

func (t *failingTx) CreateMatch(ctx context.Context, match *model.Match) error {
	t.creates++
	if t.creates == t.failOn {
		return errInjected
	}
	return t.Tx.CreateMatch(ctx, match)
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.now = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	s.clock = mocks.NewMockClock(s.now)
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) addUser(handle string, answers model.QuizAnswers) model.UserID {
	id := model.UserID("user-" + handle)
	s.clock.Advance(time.Second)
	err := s.storage.CreateUser(s.ctx, &model.User{
		ID:                   id,
		Handle:               handle,
		DisplayCode:          1000,
		QuizAnswers:          answers,
		VerificationQuestion: "q",
		VerificationAnswer:   "a",
		CreatedAt:            s.clock.Now(),
	})
	s.Require().NoError(err)
	return id
}

func (s *ServiceSuite) partnerOf(id model.UserID) *model.UserID {
	user, err := s.storage.GetUser(s.ctx, id)
	s.Require().NoError(err)
	return user.PartnerID
}

func (s *ServiceSuite) requirePaired(a, b model.UserID) {
	pa, pb := s.partnerOf(a), s.partnerOf(b)
	s.Require().NotNil(pa, "%s has no partner", a)
	s.Require().NotNil(pb, "%s has no partner", b)
	s.Equal(b, *pa)
	s.Equal(a, *pb)

	match, err := s.storage.FindActiveMatchForUser(s.ctx, a)
	s.Require().NoError(err)
	s.Require().NotNil(match)
	other, ok := match.PartnerOf(a)
	s.True(ok)
	s.Equal(b, other)
}

// Greedy order

func (s *ServiceSuite) TestGreedyTakesHighestScoreFirst() {
	// AB=3, AC=1, CD=2, everything else 0
	a := s.addUser("A", model.QuizAnswers{"q1": "a", "q2": "a", "q3": "a", "q4": "x"})
	b := s.addUser("B", model.QuizAnswers{"q1": "a", "q2": "a", "q3": "a"})
	c := s.addUser("C", model.QuizAnswers{"q4": "x", "q5": "c", "q6": "c"})
	d := s.addUser("D", model.QuizAnswers{"q5": "c", "q6": "c"})

	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	s.Equal(4, result.Candidates)
	s.Equal(2, result.Created)
	s.Equal(0, result.Unmatched)
	s.Equal([]model.PairResult{
		{UserAHandle: "A", UserBHandle: "B", Score: 3},
		{UserAHandle: "C", UserBHandle: "D", Score: 2},
	}, result.Pairs)

	s.requirePaired(a, b)
	s.requirePaired(c, d)
}

func (s *ServiceSuite) TestTiesKeepEnumerationOrder() {
	a := s.addUser("A", nil)
	b := s.addUser("B", nil)
	c := s.addUser("C", nil)
	d := s.addUser("D", nil)

	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, result.Created)
	s.requirePaired(a, b)
	s.requirePaired(c, d)
}

func (s *ServiceSuite) TestGreedyIsNotOptimal() {
	// AB, AC and BD all score 2. Greedy commits AB first and is left with C-D at 0,
	// where AC+BD would total 4.
	a := s.addUser("A", model.QuizAnswers{"q1": "x", "q2": "x", "q3": "y", "q4": "y"})
	b := s.addUser("B", model.QuizAnswers{"q1": "x", "q2": "x", "q5": "z", "q6": "z"})
	c := s.addUser("C", model.QuizAnswers{"q3": "y", "q4": "y"})
	d := s.addUser("D", model.QuizAnswers{"q5": "z", "q6": "z"})

	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, result.Created)
	s.requirePaired(a, b)
	s.requirePaired(c, d)
	s.Equal(2, result.Pairs[0].Score)
	s.Equal(0, result.Pairs[1].Score)
}

// Bounds and eligibility

func (s *ServiceSuite) TestOddCountLeavesOneUnmatched() {
	ids := make([]model.UserID, 5)
	for i := range ids {
		ids[i] = s.addUser(fmt.Sprintf("u%d", i), model.QuizAnswers{"q1": "same"})
	}

	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	s.Equal(5, result.Candidates)
	s.Equal(2, result.Created)
	s.Equal(1, result.Unmatched)

	paired := 0
	for _, id := range ids {
		partner := s.partnerOf(id)
		if partner == nil {
			continue
		}
		paired++
		back := s.partnerOf(*partner)
		s.Require().NotNil(back)
		s.Equal(id, *back, "partner pointers must be bidirectional")
	}
	s.Equal(4, paired)
}

func (s *ServiceSuite) TestCreatedNeverExceedsHalf() {
	for n := 0; n <= 7; n++ {
		s.SetupTest()
		for i := range n {
			s.addUser(fmt.Sprintf("u%d", i), model.QuizAnswers{"q1": fmt.Sprint(i % 2)})
		}

		result, err := s.service.RunBatch(s.ctx)
		s.Require().NoError(err)
		s.Equal(n/2, result.Created, "n=%d", n)
		s.Equal(n-2*result.Created, result.Unmatched)
	}
}

func (s *ServiceSuite) TestFewerThanTwoCandidatesIsNoop() {
	a := s.addUser("A", model.QuizAnswers{"q1": "x"})

	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, result.Candidates)
	s.Equal(0, result.Created)
	s.Equal(1, result.Unmatched)
	s.Empty(result.Pairs)
	s.Nil(s.partnerOf(a))

	count, err := s.storage.CountMatches(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceSuite) TestNoCandidates() {
	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, result.Candidates)
	s.Equal(0, result.Created)
}

func (s *ServiceSuite) TestMatchedUsersAreNotCandidatesAgain() {
	s.addUser("A", nil)
	s.addUser("B", nil)
	_, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	c := s.addUser("C", nil)
	result, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, result.Candidates)
	s.Equal(0, result.Created)
	s.Nil(s.partnerOf(c))
}

func (s *ServiceSuite) TestMatchRecordFields() {
	s.random.QueueID("match-1")
	a := s.addUser("A", nil)
	b := s.addUser("B", nil)

	_, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	match, err := s.storage.FindActiveMatchForUser(s.ctx, b)
	s.Require().NoError(err)
	s.Require().NotNil(match)
	s.Equal(model.MatchID("match-1"), match.ID)
	s.Equal(a, match.UserA)
	s.Equal(b, match.UserB)
	s.Equal(model.MatchStatusVerified, match.Status)
	s.Equal(s.clock.Now(), match.CreatedAt)
}

// Atomicity

func (s *ServiceSuite) TestFailureRollsBackWholeBatch() {
	ids := []model.UserID{
		s.addUser("A", nil),
		s.addUser("B", nil),
		s.addUser("C", nil),
		s.addUser("D", nil),
	}

	failing := &failingStorage{Storage: s.storage, failOn: 2}
	service := New(failing, s.clock, s.random, testutil.NopLogger())

	result, err := service.RunBatch(s.ctx)
	s.Nil(result)
	s.ErrorIs(err, model.ErrTransactionFailed)
	s.ErrorIs(err, errInjected)

	for _, id := range ids {
		s.Nil(s.partnerOf(id), "%s must still be eligible", id)
	}
	count, err := s.storage.CountMatches(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	// The store is still usable afterwards
	result, err = s.service.RunBatch(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, result.Created)
}

// Concurrency

func (s *ServiceSuite) TestConcurrentBatchesNeverDoubleMatch() {
	const users = 20
	for i := range users {
		s.addUser(fmt.Sprintf("u%02d", i), model.QuizAnswers{"q1": fmt.Sprint(i % 3)})
	}

	// Separate services share only the store, so the storage lock alone must hold
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			service := New(s.storage, s.clock, s.random, testutil.NopLogger())
			result, err := service.RunBatch(s.ctx)
			if err != nil {
				return
			}
			mu.Lock()
			created += result.Created
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(users/2, created)
	count, err := s.storage.CountMatches(s.ctx)
	s.Require().NoError(err)
	s.Equal(users/2, count)

	for i := range users {
		id := model.UserID(fmt.Sprintf("user-u%02d", i))
		partner := s.partnerOf(id)
		s.Require().NotNil(partner)
		back := s.partnerOf(*partner)
		s.Require().NotNil(back)
		s.Equal(id, *back)
	}
}

// Stats

func (s *ServiceSuite) TestStats() {
	s.addUser("A", nil)
	s.addUser("B", nil)
	s.addUser("C", nil)
	_, err := s.service.RunBatch(s.ctx)
	s.Require().NoError(err)

	stats, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.Users)
	s.Equal(1, stats.Matches)
}
