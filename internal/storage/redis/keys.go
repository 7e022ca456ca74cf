package redis

import (
	"fmt"

	"github.com/comate/comate/internal/model"
)

// Key prefix for all comate data
const keyPrefix = "comate"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// handleIndexKey returns the Redis key for the handle -> user_id index
func handleIndexKey(handle string) string {
	return fmt.Sprintf("%s:idx:handle:%s", keyPrefix, handle)
}

// usersIndexKey returns the Redis key for the ZSET of user ids scored by registration sequence
func usersIndexKey() string {
	return fmt.Sprintf("%s:idx:users", keyPrefix)
}

// userSeqKey returns the Redis key for the registration sequence counter
func userSeqKey() string {
	return fmt.Sprintf("%s:seq:users", keyPrefix)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchesIndexKey returns the Redis key for the SET of all match ids
func matchesIndexKey() string {
	return fmt.Sprintf("%s:idx:matches", keyPrefix)
}

// userMatchesKey returns the Redis key for the SET of match ids referencing a user
func userMatchesKey(id model.UserID) string {
	return fmt.Sprintf("%s:idx:user_matches:%s", keyPrefix, id)
}

// questionsKey returns the Redis key for the question catalog
func questionsKey() string {
	return fmt.Sprintf("%s:questions", keyPrefix)
}

// writerLockKey returns the Redis key for the single-writer lock
func writerLockKey() string {
	return fmt.Sprintf("%s:lock:writer", keyPrefix)
}
