package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	// txSem admits one writer transaction at a time
	txSem chan struct{}

	users       map[model.UserID]*model.User
	handleIndex map[string]model.UserID
	userSeq     map[model.UserID]uint64
	nextSeq     uint64
	matches     map[model.MatchID]*model.Match
	questions   []model.Question
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		txSem:       make(chan struct{}, 1),
		users:       make(map[model.UserID]*model.User),
		handleIndex: make(map[string]model.UserID),
		userSeq:     make(map[model.UserID]uint64),
		matches:     make(map[model.MatchID]*model.Match),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.handleIndex[user.Handle]; taken {
		return model.ErrDuplicateHandle
	}

	s.nextSeq++
	s.users[user.ID] = user.Clone()
	s.handleIndex[user.Handle] = user.ID
	s.userSeq[user.ID] = s.nextSeq
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Storage) ListUnmatched(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*model.User
	for _, u := range s.users {
		if u.IsEligible() {
			users = append(users, u.Clone())
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return s.userSeq[users[i].ID] < s.userSeq[users[j].ID]
	})
	return users, nil
}

// Match operations

func (s *Storage) FindActiveMatchForUser(ctx context.Context, userID model.UserID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Match
	for _, m := range s.matches {
		if !m.IsActive() || !m.Involves(userID) {
			continue
		}
		// Oldest wins if the one-active-match invariant was ever broken
		if found == nil || m.CreatedAt.Before(found.CreatedAt) ||
			(m.CreatedAt.Equal(found.CreatedAt) && m.ID < found.ID) {
			found = m
		}
	}
	if found == nil {
		return nil, nil
	}
	c := *found
	return &c, nil
}

// Question catalog

func (s *Storage) ListQuestions(ctx context.Context) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.Question, len(s.questions))
	for i, q := range s.questions {
		q.Options = slices.Clone(q.Options)
		result[i] = q
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SortOrder < result[j].SortOrder
	})
	return result, nil
}

func (s *Storage) SaveQuestions(ctx context.Context, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = make([]model.Question, len(questions))
	for i, q := range questions {
		q.Options = slices.Clone(q.Options)
		s.questions[i] = q
	}
	return nil
}

// Aggregates

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Storage) CountMatches(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}

// Transactions

func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	select {
	case s.txSem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", model.ErrLockTimeout, ctx.Err())
	}
	defer func() { <-s.txSem }()

	tx := &memTx{Storage: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range tx.ops {
		op()
	}
	return nil
}

// memTx stages writes as closures applied under the write lock on commit.
// Writers are serialized by txSem, so a validation done while staging still
// holds when the op is applied.
type memTx struct {
	*Storage
	ops []func()
}

func (t *memTx) stage(op func()) {
	t.ops = append(t.ops, op)
}

func (t *memTx) SetPartner(ctx context.Context, userID, partnerID model.UserID) error {
	if _, err := t.GetUser(ctx, userID); err != nil {
		return err
	}
	t.stage(func() {
		if u, ok := t.users[userID]; ok {
			p := partnerID
			u.PartnerID = &p
		}
	})
	return nil
}

func (t *memTx) ClearPartner(ctx context.Context, userID model.UserID) error {
	if _, err := t.GetUser(ctx, userID); err != nil {
		return err
	}
	t.stage(func() {
		if u, ok := t.users[userID]; ok {
			u.PartnerID = nil
		}
	})
	return nil
}

func (t *memTx) DeleteUser(ctx context.Context, id model.UserID) error {
	t.stage(func() {
		u, ok := t.users[id]
		if !ok {
			return
		}
		delete(t.handleIndex, u.Handle)
		delete(t.userSeq, id)
		delete(t.users, id)
	})
	return nil
}

func (t *memTx) CreateMatch(ctx context.Context, match *model.Match) error {
	c := *match
	t.stage(func() {
		t.matches[c.ID] = &c
	})
	return nil
}

func (t *memTx) DeleteMatchesForUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	t.mu.RLock()
	var removed []*model.Match
	for _, m := range t.matches {
		if m.Involves(userID) {
			c := *m
			removed = append(removed, &c)
		}
	}
	t.mu.RUnlock()

	t.stage(func() {
		for _, m := range removed {
			delete(t.matches, m.ID)
		}
	})
	return removed, nil
}
