// Package registration creates users joining the matchmaking queue
package registration

import (
	"context"
	"log/slog"
	"strings"

	"github.com/comate/comate/internal/dependencies/clock"
	"github.com/comate/comate/internal/dependencies/random"
	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

const (
	// displayCodeMin and displayCodeSpan give 4-digit codes in [1000, 9999]
	displayCodeMin  = 1000
	displayCodeSpan = 9000
)

// Input is what a user submits when joining
type Input struct {
	Handle               string
	QuizAnswers          model.QuizAnswers
	VerificationQuestion string
	VerificationAnswer   string
}

// Service registers users
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new registration Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

func validate(in Input) error {
	if in.Handle == "" {
		return &model.ValidationError{Field: "handle", Message: "is required"}
	}
	if in.VerificationQuestion == "" {
		return &model.ValidationError{Field: "verification_question", Message: "is required"}
	}
	if in.VerificationAnswer == "" {
		return &model.ValidationError{Field: "verification_answer", Message: "is required"}
	}
	return nil
}

// Register validates the input and stores a new eligible user with a random
// display code. Nothing is written when validation fails.
func (s *Service) Register(ctx context.Context, in Input) (*model.User, error) {
	in.Handle = strings.TrimSpace(in.Handle)
	in.VerificationQuestion = strings.TrimSpace(in.VerificationQuestion)
	in.VerificationAnswer = strings.TrimSpace(in.VerificationAnswer)

	if err := validate(in); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:                   model.UserID(s.random.NewID()),
		Handle:               in.Handle,
		DisplayCode:          displayCodeMin + s.random.Intn(displayCodeSpan),
		QuizAnswers:          in.QuizAnswers.Clone(),
		VerificationQuestion: in.VerificationQuestion,
		VerificationAnswer:   in.VerificationAnswer,
		CreatedAt:            s.clock.Now(),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "answers", len(user.QuizAnswers))
	return user, nil
}

// Get returns a registered user
func (s *Service) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.storage.GetUser(ctx, id)
}
