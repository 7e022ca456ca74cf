package response

import (
	"fmt"
	"time"

	"github.com/comate/comate/internal/model"
)

// Health is the liveness response
type Health struct {
	Status string `json:"status"`
}

// Stats holds aggregate counts
type Stats struct {
	Users   int `json:"users"`
	Matches int `json:"matches"`
}

// StatsFromModel converts model.Stats
func StatsFromModel(s *model.Stats) Stats {
	return Stats{Users: s.Users, Matches: s.Matches}
}

// Question represents one catalog entry
type Question struct {
	ShortID   string   `json:"short_id"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	SortOrder int      `json:"sort_order"`
}

// QuestionsFromModel converts the catalog, never returning nil
func QuestionsFromModel(qs []model.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		out = append(out, Question{ShortID: q.ShortID, Text: q.Text, Options: options, SortOrder: q.SortOrder})
	}
	return out
}

// Registered is returned after a successful registration
type Registered struct {
	UserID      string `json:"user_id"`
	DisplayCode int    `json:"display_code"`
}

// User is the owner's view of their own record
type User struct {
	ID                   string            `json:"id"`
	Handle               string            `json:"handle"`
	DisplayCode          int               `json:"display_code"`
	QuizAnswers          model.QuizAnswers `json:"quiz_answers"`
	VerificationQuestion string            `json:"verification_question"`
	VerificationAnswer   string            `json:"verification_answer"`
	Matched              bool              `json:"matched"`
	CreatedAt            time.Time         `json:"created_at"`
}

// UserFromModel converts a model.User
func UserFromModel(u *model.User) User {
	return User{
		ID:                   string(u.ID),
		Handle:               u.Handle,
		DisplayCode:          u.DisplayCode,
		QuizAnswers:          u.QuizAnswers.Clone(),
		VerificationQuestion: u.VerificationQuestion,
		VerificationAnswer:   u.VerificationAnswer,
		Matched:              u.PartnerID != nil,
		CreatedAt:            u.CreatedAt,
	}
}

// Self is the polling user's own data in a status response
type Self struct {
	Handle               string            `json:"handle"`
	DisplayCode          int               `json:"display_code"`
	QuizAnswers          model.QuizAnswers `json:"quiz_answers"`
	VerificationQuestion string            `json:"verification_question"`
}

// Partner is the partner's data in a status response. Handle is always hidden.
type Partner struct {
	Handle               string            `json:"handle"`
	DisplayCode          int               `json:"display_code"`
	VerificationQuestion string            `json:"verification_question"`
	VerificationAnswer   string            `json:"verification_answer"`
	QuizAnswers          model.QuizAnswers `json:"quiz_answers"`
}

// Status is the lifecycle status response
type Status struct {
	State   string   `json:"state"`
	MatchID string   `json:"match_id,omitempty"`
	Self    *Self    `json:"self,omitempty"`
	Partner *Partner `json:"partner,omitempty"`
}

// StatusFromModel converts model.Status
func StatusFromModel(s *model.Status) Status {
	out := Status{State: string(s.State), MatchID: string(s.MatchID)}
	if s.Self != nil {
		out.Self = &Self{
			Handle:               s.Self.Handle,
			DisplayCode:          s.Self.DisplayCode,
			QuizAnswers:          s.Self.QuizAnswers.Clone(),
			VerificationQuestion: s.Self.VerificationQuestion,
		}
	}
	if s.Partner != nil {
		out.Partner = &Partner{
			Handle:               s.Partner.Handle,
			DisplayCode:          s.Partner.DisplayCode,
			VerificationQuestion: s.Partner.VerificationQuestion,
			VerificationAnswer:   s.Partner.VerificationAnswer,
			QuizAnswers:          s.Partner.QuizAnswers.Clone(),
		}
	}
	return out
}

// Verify is the result of a code guess
type Verify struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Submitted string `json:"submitted,omitempty"`
}

// VerifyFromModel converts model.VerifyResult, adding a message on failure
func VerifyFromModel(r *model.VerifyResult) Verify {
	if r.Success {
		return Verify{Success: true}
	}
	return Verify{
		Success:   false,
		Message:   "Wrong code! Submitted: '" + r.Submitted + "'",
		Submitted: r.Submitted,
	}
}

// Pair is one pair committed by a batch pass
type Pair struct {
	UserA string `json:"user_a"`
	UserB string `json:"user_b"`
	Score int    `json:"score"`
}

// Batch summarizes a batch-matching pass
type Batch struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Matches    []Pair `json:"matches"`
	Count      int    `json:"count"`
	Candidates int    `json:"candidates"`
	Unmatched  int    `json:"unmatched"`
}

// BatchFromModel converts model.BatchResult. Fewer than two candidates is
// reported as an unsuccessful pass with a message.
func BatchFromModel(r *model.BatchResult) Batch {
	out := Batch{
		Success:    true,
		Matches:    make([]Pair, 0, len(r.Pairs)),
		Count:      r.Created,
		Candidates: r.Candidates,
		Unmatched:  r.Unmatched,
	}
	for _, p := range r.Pairs {
		out.Matches = append(out.Matches, Pair{UserA: p.UserAHandle, UserB: p.UserBHandle, Score: p.Score})
	}
	if r.Candidates < 2 {
		out.Success = false
		out.Message = fmt.Sprintf("Not enough candidates (found: %d)", r.Candidates)
	}
	return out
}
