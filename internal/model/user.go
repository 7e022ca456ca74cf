package model

import (
	"encoding/json"
	"maps"
	"time"
)

// UserID uniquely identifies a registered user
type UserID string

// QuizAnswers maps a question short id to the selected option
type QuizAnswers map[string]string

// UnmarshalJSON decodes answers leniently. Anything that is not a JSON object
// (older clients sent an empty array) decodes to an empty map, and non-string
// option values are dropped.
func (q *QuizAnswers) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		*q = QuizAnswers{}
		return nil
	}

	answers := make(QuizAnswers, len(raw))
	for key, val := range raw {
		if s, ok := val.(string); ok {
			answers[key] = s
		}
	}
	*q = answers
	return nil
}

// Clone returns an independent copy of the answers (never nil)
func (q QuizAnswers) Clone() QuizAnswers {
	if q == nil {
		return QuizAnswers{}
	}
	return maps.Clone(q)
}

// User is a participant waiting for, or holding, a match
type User struct {
	ID          UserID
	Handle      string // unique, non-empty
	DisplayCode int    // 4-digit code the partner must guess
	QuizAnswers QuizAnswers

	// Free-form question/answer shown to the partner after matching
	VerificationQuestion string
	VerificationAnswer   string

	// PartnerID is set when a batch pass commits a match for this user
	PartnerID *UserID

	CreatedAt time.Time
}

// IsEligible reports whether the user can be picked up by a batch pass
func (u *User) IsEligible() bool {
	return u.PartnerID == nil
}

// Clone returns a deep copy so stored users never alias caller data
func (u *User) Clone() *User {
	c := *u
	c.QuizAnswers = u.QuizAnswers.Clone()
	if u.PartnerID != nil {
		p := *u.PartnerID
		c.PartnerID = &p
	}
	return &c
}
