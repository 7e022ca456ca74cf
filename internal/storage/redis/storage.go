package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	// The handle index doubles as the uniqueness guard
	claimed, err := s.client.SetNX(ctx, handleIndexKey(user.Handle), string(user.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrDuplicateHandle
	}

	data, err := json.Marshal(user)
	if err != nil {
		s.client.Del(ctx, handleIndexKey(user.Handle))
		return err
	}

	seq, err := s.client.Incr(ctx, userSeqKey()).Result()
	if err != nil {
		s.client.Del(ctx, handleIndexKey(user.Handle))
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	pipe.ZAdd(ctx, usersIndexKey(), redis.Z{Score: float64(seq), Member: string(user.ID)})
	if _, err := pipe.Exec(ctx); err != nil {
		s.client.Del(ctx, handleIndexKey(user.Handle))
		return err
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) ListUnmatched(ctx context.Context) ([]*model.User, error) {
	// ZRANGE keeps registration order
	ids, err := s.client.ZRange(ctx, usersIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(model.UserID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Deleted between ZRANGE and MGET
		}
		var user model.User
		if err := json.Unmarshal([]byte(val.(string)), &user); err != nil {
			return nil, err
		}
		if user.IsEligible() {
			users = append(users, &user)
		}
	}
	return users, nil
}

// Match operations

func (s *Storage) matchesForUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	ids, err := s.client.SMembers(ctx, userMatchesKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKey(model.MatchID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	matches := make([]*model.Match, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var match model.Match
		if err := json.Unmarshal([]byte(val.(string)), &match); err != nil {
			return nil, err
		}
		matches = append(matches, &match)
	}
	return matches, nil
}

func (s *Storage) FindActiveMatchForUser(ctx context.Context, userID model.UserID) (*model.Match, error) {
	matches, err := s.matchesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var active []*model.Match
	for _, m := range matches {
		if m.IsActive() {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})
	return active[0], nil
}

// Question catalog

func (s *Storage) ListQuestions(ctx context.Context) ([]model.Question, error) {
	data, err := s.client.Get(ctx, questionsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Question{}, nil
		}
		return nil, err
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].SortOrder < questions[j].SortOrder
	})
	return questions, nil
}

func (s *Storage) SaveQuestions(ctx context.Context, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, questionsKey(), data, 0).Err()
}

// Aggregates

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, usersIndexKey()).Result()
	return int(n), err
}

func (s *Storage) CountMatches(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, matchesIndexKey()).Result()
	return int(n), err
}

// Transactions

func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	lock, err := s.acquireWriterLock(ctx)
	if err != nil {
		return err
	}
	defer lock.release()

	tx := &redisTx{Storage: s, pipe: s.client.TxPipeline()}
	if err := fn(ctx, tx); err != nil {
		tx.pipe.Discard()
		return err
	}

	if tx.pipe.Len() == 0 {
		return nil
	}
	if _, err := tx.pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransactionFailed, err)
	}
	return nil
}
