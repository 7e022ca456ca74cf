package storage

import (
	"context"

	"github.com/comate/comate/internal/model"
)

// Reader holds the read-only repository operations
type Reader interface {
	// User operations
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	// ListUnmatched returns users without a partner in registration order
	ListUnmatched(ctx context.Context) ([]*model.User, error)

	// Match operations
	// FindActiveMatchForUser returns nil, nil when the user has no active match
	FindActiveMatchForUser(ctx context.Context, userID model.UserID) (*model.Match, error)
}

// Tx is a unit of work. Writes are applied all-or-nothing when the enclosing
// WithTx callback returns nil. Whether reads see the transaction's own writes
// depends on the backend, so callers read before they write.
type Tx interface {
	Reader

	SetPartner(ctx context.Context, userID, partnerID model.UserID) error
	ClearPartner(ctx context.Context, userID model.UserID) error
	DeleteUser(ctx context.Context, id model.UserID) error

	CreateMatch(ctx context.Context, match *model.Match) error
	// DeleteMatchesForUser removes every match referencing the user, on either side,
	// and returns what it removed
	DeleteMatchesForUser(ctx context.Context, userID model.UserID) ([]*model.Match, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	Reader

	// CreateUser inserts a new user, failing with model.ErrDuplicateHandle
	// if the handle is taken
	CreateUser(ctx context.Context, user *model.User) error

	// WithTx runs fn as a single serialized writer. Only one transaction runs
	// at a time per store.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Question catalog
	ListQuestions(ctx context.Context) ([]model.Question, error)
	SaveQuestions(ctx context.Context, questions []model.Question) error

	// Aggregates
	CountUsers(ctx context.Context) (int, error)
	CountMatches(ctx context.Context) (int, error)

	Close() error
}
