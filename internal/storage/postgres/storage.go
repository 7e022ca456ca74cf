package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

// writerLockID is the pg_advisory_xact_lock key serializing writer transactions
const writerLockID int64 = 0x636f6d617465 // "comate"

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	conn *Connection
}

// New connects, applies migrations and returns a ready store
func New(ctx context.Context, cfg Config) (*Storage, error) {
	conn, err := NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Storage{conn: conn}, nil
}

// Close closes the connection pool
func (s *Storage) Close() error {
	s.conn.Close()
	return nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

const userColumns = `id, handle, display_code, quiz_answers, verification_question,
	verification_answer, partner_id, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user      model.User
		answers   []byte
		partnerID *string
	)
	err := row.Scan(&user.ID, &user.Handle, &user.DisplayCode, &answers,
		&user.VerificationQuestion, &user.VerificationAnswer, &partnerID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	// Lenient decode: a malformed column reads as no answers
	if err := json.Unmarshal(answers, &user.QuizAnswers); err != nil || user.QuizAnswers == nil {
		user.QuizAnswers = model.QuizAnswers{}
	}
	if partnerID != nil {
		p := model.UserID(*partnerID)
		user.PartnerID = &p
	}
	return &user, nil
}

func scanMatch(row pgx.Row) (*model.Match, error) {
	var match model.Match
	if err := row.Scan(&match.ID, &match.UserA, &match.UserB, &match.Status, &match.CreatedAt); err != nil {
		return nil, err
	}
	return &match, nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	answers, err := json.Marshal(user.QuizAnswers.Clone())
	if err != nil {
		return err
	}

	var partnerID *string
	if user.PartnerID != nil {
		p := string(*user.PartnerID)
		partnerID = &p
	}

	_, err = s.conn.pool.Exec(ctx, `
		INSERT INTO users (id, handle, display_code, quiz_answers, verification_question,
			verification_answer, partner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(user.ID), user.Handle, user.DisplayCode, answers, user.VerificationQuestion,
		user.VerificationAnswer, partnerID, user.CreatedAt)
	if IsUniqueViolation(err) {
		return model.ErrDuplicateHandle
	}
	return err
}

func getUser(ctx context.Context, q Querier, id model.UserID) (*model.User, error) {
	user, err := scanUser(q.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", string(id)))
	if IsNoRows(err) {
		return nil, model.ErrUserNotFound
	}
	return user, err
}

func listUnmatched(ctx context.Context, q Querier) ([]*model.User, error) {
	rows, err := q.Query(ctx, "SELECT "+userColumns+" FROM users WHERE partner_id IS NULL ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func findActiveMatch(ctx context.Context, q Querier, userID model.UserID) (*model.Match, error) {
	match, err := scanMatch(q.QueryRow(ctx, `
		SELECT id, user_a, user_b, status, created_at FROM matches
		WHERE (user_a = $1 OR user_b = $1) AND status <> 'expired'
		ORDER BY created_at, id
		LIMIT 1`, string(userID)))
	if IsNoRows(err) {
		return nil, nil
	}
	return match, err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return getUser(ctx, s.conn.pool, id)
}

func (s *Storage) ListUnmatched(ctx context.Context) ([]*model.User, error) {
	return listUnmatched(ctx, s.conn.pool)
}

// Match operations

func (s *Storage) FindActiveMatchForUser(ctx context.Context, userID model.UserID) (*model.Match, error) {
	return findActiveMatch(ctx, s.conn.pool, userID)
}

// Question catalog

func (s *Storage) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.conn.pool.Query(ctx, "SELECT short_id, text, options, sort_order FROM questions ORDER BY sort_order, short_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var (
			q       model.Question
			options []byte
		)
		if err := rows.Scan(&q.ShortID, &q.Text, &options, &q.SortOrder); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ShortID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Storage) SaveQuestions(ctx context.Context, questions []model.Question) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM questions"); err != nil {
			return err
		}
		for _, q := range questions {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx,
				"INSERT INTO questions (short_id, text, options, sort_order) VALUES ($1, $2, $3, $4)",
				q.ShortID, q.Text, options, q.SortOrder)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Aggregates

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.conn.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n)
	return n, err
}

func (s *Storage) CountMatches(ctx context.Context) (int, error) {
	var n int
	err := s.conn.pool.QueryRow(ctx, "SELECT count(*) FROM matches").Scan(&n)
	return n, err
}

// Transactions

func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		// Serializes writers across every process sharing the database
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writerLockID); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", model.ErrLockTimeout, ctx.Err())
			}
			return err
		}
		return fn(ctx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t *pgTx) ListUnmatched(ctx context.Context) ([]*model.User, error) {
	return listUnmatched(ctx, t.tx)
}

func (t *pgTx) FindActiveMatchForUser(ctx context.Context, userID model.UserID) (*model.Match, error) {
	return findActiveMatch(ctx, t.tx, userID)
}

func (t *pgTx) SetPartner(ctx context.Context, userID, partnerID model.UserID) error {
	tag, err := t.tx.Exec(ctx, "UPDATE users SET partner_id = $2 WHERE id = $1", string(userID), string(partnerID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (t *pgTx) ClearPartner(ctx context.Context, userID model.UserID) error {
	tag, err := t.tx.Exec(ctx, "UPDATE users SET partner_id = NULL WHERE id = $1", string(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (t *pgTx) DeleteUser(ctx context.Context, id model.UserID) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM users WHERE id = $1", string(id))
	return err
}

func (t *pgTx) CreateMatch(ctx context.Context, match *model.Match) error {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO matches (id, user_a, user_b, status, created_at) VALUES ($1, $2, $3, $4, $5)",
		string(match.ID), string(match.UserA), string(match.UserB), string(match.Status), match.CreatedAt)
	return err
}

func (t *pgTx) DeleteMatchesForUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	rows, err := t.tx.Query(ctx, `
		DELETE FROM matches WHERE user_a = $1 OR user_b = $1
		RETURNING id, user_a, user_b, status, created_at`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var removed []*model.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		removed = append(removed, match)
	}
	return removed, rows.Err()
}
