package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus represents where a match is in its lifecycle
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"  // Awaiting verification
	MatchStatusVerified MatchStatus = "verified" // Batch pass commits matches in this state
	MatchStatusExpired  MatchStatus = "expired"  // No longer active
)

// Match pairs two users. The A/B order is fixed at creation so each side can
// find its partner without ambiguity.
type Match struct {
	ID        MatchID
	UserA     UserID
	UserB     UserID
	Status    MatchStatus
	CreatedAt time.Time
}

// IsActive returns true unless the match has expired
func (m *Match) IsActive() bool {
	return m.Status != MatchStatusExpired
}

// Involves returns true if the user is either participant
func (m *Match) Involves(id UserID) bool {
	return m.UserA == id || m.UserB == id
}

// IsUserA returns true if the user occupies the A side
func (m *Match) IsUserA(id UserID) bool {
	return m.UserA == id
}

// PartnerOf returns the other participant, or false if the user is not in the match
func (m *Match) PartnerOf(id UserID) (UserID, bool) {
	switch id {
	case m.UserA:
		return m.UserB, true
	case m.UserB:
		return m.UserA, true
	default:
		return "", false
	}
}
