// Package lifecycle answers status and verify queries for a matched user and
// handles leaving the queue
package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

// Config holds lifecycle behavior settings
type Config struct {
	// ReleasePartnerOnLeave clears the remaining participant's partner pointer
	// when their partner leaves, making them eligible again
	ReleasePartnerOnLeave bool
}

// Service implements the match lifecycle state machine
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
	cfg     Config
}

// New creates a new lifecycle Service
func New(storage storage.Storage, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		cfg:     cfg,
	}
}

func idle() *model.Status {
	return &model.Status{State: model.StatusIdle}
}

// Status reports what the user currently sees about their match. Unknown users
// and users without an active match are idle. The partner's handle is always
// replaced by model.HiddenHandle.
func (s *Service) Status(ctx context.Context, userID model.UserID) (*model.Status, error) {
	match, err := s.storage.FindActiveMatchForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return idle(), nil
	}

	var selfID, partnerID model.UserID
	if match.IsUserA(userID) {
		selfID, partnerID = match.UserA, match.UserB
	} else {
		selfID, partnerID = match.UserB, match.UserA
	}

	self, err := s.storage.GetUser(ctx, selfID)
	if errors.Is(err, model.ErrUserNotFound) {
		return idle(), nil
	}
	if err != nil {
		return nil, err
	}

	partner, err := s.storage.GetUser(ctx, partnerID)
	if errors.Is(err, model.ErrUserNotFound) {
		s.logger.Warn("active match references missing user", "match_id", match.ID, "user_id", partnerID)
		return idle(), nil
	}
	if err != nil {
		return nil, err
	}

	state := model.StatusPendingVerification
	if match.Status == model.MatchStatusVerified {
		state = model.StatusMatched
	}

	return &model.Status{
		State:   state,
		MatchID: match.ID,
		Self: &model.SelfView{
			Handle:               self.Handle,
			DisplayCode:          self.DisplayCode,
			QuizAnswers:          self.QuizAnswers.Clone(),
			VerificationQuestion: self.VerificationQuestion,
		},
		Partner: &model.PartnerView{
			Handle:               model.HiddenHandle,
			DisplayCode:          partner.DisplayCode,
			VerificationQuestion: partner.VerificationQuestion,
			VerificationAnswer:   partner.VerificationAnswer,
			QuizAnswers:          partner.QuizAnswers.Clone(),
		},
	}, nil
}

// Verify compares a guessed code with the partner's display code after
// normalizing both. It never mutates state and never reveals the correct code.
func (s *Service) Verify(ctx context.Context, userID model.UserID, code any) (*model.VerifyResult, error) {
	match, err := s.storage.FindActiveMatchForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, model.ErrNoActiveMatch
	}

	partnerID, _ := match.PartnerOf(userID)
	partner, err := s.storage.GetUser(ctx, partnerID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrNoActiveMatch
	}
	if err != nil {
		return nil, err
	}

	submitted := NormalizeCode(code)
	if submitted == NormalizeCode(partner.DisplayCode) {
		return &model.VerifyResult{Success: true}, nil
	}
	return &model.VerifyResult{Success: false, Submitted: submitted}, nil
}

// Leave deletes the user and every match referencing them in one transaction.
// Leaving twice, or leaving as an unknown user, is not an error.
func (s *Service) Leave(ctx context.Context, userID model.UserID) error {
	var removed []*model.Match
	err := s.storage.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		removed, err = tx.DeleteMatchesForUser(ctx, userID)
		if err != nil {
			return err
		}

		if s.cfg.ReleasePartnerOnLeave {
			if err := releasePartners(ctx, tx, userID, removed); err != nil {
				return err
			}
		}

		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("user left", "user_id", userID, "matches_removed", len(removed))
	return nil
}

// releasePartners clears the pointer of every remaining participant still
// pointing at the leaving user
func releasePartners(ctx context.Context, tx storage.Tx, userID model.UserID, removed []*model.Match) error {
	for _, m := range removed {
		partnerID, _ := m.PartnerOf(userID)
		partner, err := tx.GetUser(ctx, partnerID)
		if errors.Is(err, model.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if partner.PartnerID != nil && *partner.PartnerID == userID {
			if err := tx.ClearPartner(ctx, partnerID); err != nil {
				return err
			}
		}
	}
	return nil
}
