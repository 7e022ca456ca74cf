package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
	"github.com/comate/comate/internal/storage/storagetest"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LockTTL = time.Second
	cfg.LockTimeout = 2 * time.Second
	cfg.LockRetryInterval = time.Millisecond
	return cfg
}

func TestStorageConformance(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			mini := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
			return NewWithClient(client, testConfig())
		},
	})
}

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, testConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) createUser(id, handle string) {
	err := s.storage.CreateUser(s.ctx, &model.User{ID: model.UserID(id), Handle: handle, CreatedAt: time.Now()})
	s.Require().NoError(err)
}

func (s *StorageSuite) TestCreateUserWritesIndexes() {
	s.createUser("u1", "ayse")

	s.True(s.mini.Exists("comate:user:u1"))
	got, err := s.mini.Get("comate:idx:handle:ayse")
	s.Require().NoError(err)
	s.Equal("u1", got)

	members, err := s.mini.ZMembers("comate:idx:users")
	s.Require().NoError(err)
	s.Equal([]string{"u1"}, members)
}

func (s *StorageSuite) TestCreateMatchWritesIndexes() {
	s.createUser("a", "a")
	s.createUser("b", "b")

	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.CreateMatch(ctx, &model.Match{ID: "m1", UserA: "a", UserB: "b", Status: model.MatchStatusVerified})
	})
	s.Require().NoError(err)

	s.True(s.mini.Exists("comate:match:m1"))
	for _, key := range []string{"comate:idx:user_matches:a", "comate:idx:user_matches:b", "comate:idx:matches"} {
		isMember, err := s.mini.SIsMember(key, "m1")
		s.Require().NoError(err)
		s.True(isMember, key)
	}
}

func (s *StorageSuite) TestWithTxReleasesLock() {
	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		s.True(s.mini.Exists("comate:lock:writer"))
		return nil
	})
	s.Require().NoError(err)
	s.False(s.mini.Exists("comate:lock:writer"))
}

func (s *StorageSuite) TestWithTxTimesOutWhenLockHeld() {
	s.Require().NoError(s.mini.Set("comate:lock:writer", "someone-else"))

	cfg := testConfig()
	cfg.LockTimeout = 20 * time.Millisecond
	s.storage.cfg = cfg

	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		s.Fail("must not run without the lock")
		return nil
	})
	s.ErrorIs(err, model.ErrLockTimeout)

	// Foreign lock is left alone
	got, err := s.mini.Get("comate:lock:writer")
	s.Require().NoError(err)
	s.Equal("someone-else", got)
}

func (s *StorageSuite) TestExpiredLockCanBeTaken() {
	s.Require().NoError(s.mini.Set("comate:lock:writer", "crashed-writer"))
	s.mini.SetTTL("comate:lock:writer", time.Second)
	s.mini.FastForward(2 * time.Second)

	err := s.storage.WithTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return nil
	})
	s.NoError(err)
}

func (s *StorageSuite) TestLenientQuizAnswersDecode() {
	// Older writers stored an empty array for unanswered quizzes
	s.Require().NoError(s.mini.Set("comate:user:legacy", `{"ID":"legacy","Handle":"old","QuizAnswers":[]}`))

	user, err := s.storage.GetUser(s.ctx, "legacy")
	s.Require().NoError(err)
	s.NotNil(user.QuizAnswers)
	s.Empty(user.QuizAnswers)
}
