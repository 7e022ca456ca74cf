package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/comate/comate/internal/model"
)

// releaseScript deletes the lock only if this writer still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type writerLock struct {
	client *redis.Client
	token  string
}

// acquireWriterLock polls SET NX PX until the lock is free, ctx is done or
// LockTimeout elapses
func (s *Storage) acquireWriterLock(ctx context.Context) (*writerLock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(s.cfg.LockTimeout)

	for {
		ok, err := s.client.SetNX(ctx, writerLockKey(), token, s.cfg.LockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &writerLock{client: s.client, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, model.ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", model.ErrLockTimeout, ctx.Err())
		case <-time.After(s.cfg.LockRetryInterval):
		}
	}
}

func (l *writerLock) release() {
	// Release even if the caller's context was cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{writerLockKey()}, l.token).Err(); err != nil {
		slog.Warn("failed to release writer lock", "error", err)
	}
}

// redisTx reads committed state directly and queues writes on a MULTI/EXEC
// pipeline executed at commit
type redisTx struct {
	*Storage
	pipe redis.Pipeliner
}

func (t *redisTx) setUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	t.pipe.Set(ctx, userKey(user.ID), data, 0)
	return nil
}

func (t *redisTx) SetPartner(ctx context.Context, userID, partnerID model.UserID) error {
	user, err := t.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.PartnerID = &partnerID
	return t.setUser(ctx, user)
}

func (t *redisTx) ClearPartner(ctx context.Context, userID model.UserID) error {
	user, err := t.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.PartnerID = nil
	return t.setUser(ctx, user)
}

func (t *redisTx) DeleteUser(ctx context.Context, id model.UserID) error {
	user, err := t.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}

	t.pipe.Del(ctx, userKey(id), handleIndexKey(user.Handle), userMatchesKey(id))
	t.pipe.ZRem(ctx, usersIndexKey(), string(id))
	return nil
}

func (t *redisTx) CreateMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	id := string(match.ID)
	t.pipe.Set(ctx, matchKey(match.ID), data, 0)
	t.pipe.SAdd(ctx, matchesIndexKey(), id)
	t.pipe.SAdd(ctx, userMatchesKey(match.UserA), id)
	t.pipe.SAdd(ctx, userMatchesKey(match.UserB), id)
	return nil
}

func (t *redisTx) DeleteMatchesForUser(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	matches, err := t.matchesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		id := string(m.ID)
		t.pipe.Del(ctx, matchKey(m.ID))
		t.pipe.SRem(ctx, matchesIndexKey(), id)
		t.pipe.SRem(ctx, userMatchesKey(m.UserA), id)
		t.pipe.SRem(ctx, userMatchesKey(m.UserB), id)
	}
	return matches, nil
}
