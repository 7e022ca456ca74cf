// Package matching pairs eligible users greedily by quiz similarity
package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/comate/comate/internal/dependencies/clock"
	"github.com/comate/comate/internal/dependencies/random"
	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/services/scoring"
	"github.com/comate/comate/internal/storage"
)

// Service runs batch-matching passes
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	// mu serializes passes within this process. The storage writer lock
	// serializes them across processes.
	mu sync.Mutex
}

// New creates a new matching Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// candidatePair is one scored unordered pair of eligible users
type candidatePair struct {
	a, b  *model.User
	score int
}

// RunBatch pairs every eligible user it can in a single transaction. Pairs are
// committed greedily in descending score order; a user already committed in
// this pass is skipped. With fewer than two eligible users nothing is written.
func (s *Service) RunBatch(ctx context.Context) (*model.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	var result *model.BatchResult
	err := s.storage.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		candidates, err := tx.ListUnmatched(ctx)
		if err != nil {
			return err
		}

		result = &model.BatchResult{
			Candidates: len(candidates),
			Pairs:      []model.PairResult{},
			Unmatched:  len(candidates),
		}
		if len(candidates) < 2 {
			return nil
		}

		pairs := rankPairs(candidates)
		committed := make(map[model.UserID]bool, len(candidates))
		now := s.clock.Now()

		for _, p := range pairs {
			if committed[p.a.ID] || committed[p.b.ID] {
				continue
			}

			if err := tx.SetPartner(ctx, p.a.ID, p.b.ID); err != nil {
				return err
			}
			if err := tx.SetPartner(ctx, p.b.ID, p.a.ID); err != nil {
				return err
			}
			match := &model.Match{
				ID:        model.MatchID(s.random.NewID()),
				UserA:     p.a.ID,
				UserB:     p.b.ID,
				Status:    model.MatchStatusVerified,
				CreatedAt: now,
			}
			if err := tx.CreateMatch(ctx, match); err != nil {
				return err
			}

			committed[p.a.ID] = true
			committed[p.b.ID] = true
			result.Pairs = append(result.Pairs, model.PairResult{
				UserAHandle: p.a.Handle,
				UserBHandle: p.b.Handle,
				Score:       p.score,
			})
		}

		result.Created = len(result.Pairs)
		result.Unmatched = len(candidates) - 2*result.Created
		return nil
	})
	if err != nil {
		s.logger.Error("batch match failed", "error", err)
		return nil, fmt.Errorf("%w: %w", model.ErrTransactionFailed, err)
	}

	for _, p := range result.Pairs {
		s.logger.Info("pair matched", "user_a", p.UserAHandle, "user_b", p.UserBHandle, "score", p.Score)
	}
	s.logger.Info("batch match complete",
		"candidates", result.Candidates,
		"created", result.Created,
		"unmatched", result.Unmatched,
		"duration", s.clock.Since(start),
	)
	return result, nil
}

// rankPairs enumerates i<j pairs in listing order and stable-sorts them by
// descending score, so ties keep enumeration order
func rankPairs(candidates []*model.User) []candidatePair {
	pairs := make([]candidatePair, 0, len(candidates)*(len(candidates)-1)/2)
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			pairs = append(pairs, candidatePair{
				a:     candidates[i],
				b:     candidates[j],
				score: scoring.Score(candidates[i].QuizAnswers, candidates[j].QuizAnswers),
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})
	return pairs
}

// Stats returns user and match counts
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	users, err := s.storage.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := s.storage.CountMatches(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Stats{Users: users, Matches: matches}, nil
}
