package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case StatsResult:
		fmt.Fprintf(o.w, "Users: %d\nMatches: %d\n", v.Users, v.Matches)
	case []Question:
		o.printQuestions(v)
	case RegisterResult:
		fmt.Fprintf(o.w, "Registered: %s\nYour display code: %d\n", v.UserID, v.DisplayCode)
	case User:
		o.printUser(v)
	case StatusResult:
		o.printStatus(v)
	case VerifyResult:
		o.printVerify(v)
	case BatchResult:
		o.printBatch(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatsResult response type
type StatsResult struct {
	Users   int `json:"users"`
	Matches int `json:"matches"`
}

// Question response type
type Question struct {
	ShortID   string   `json:"short_id"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	SortOrder int      `json:"sort_order"`
}

// RegisterResult response type
type RegisterResult struct {
	UserID      string `json:"user_id"`
	DisplayCode int    `json:"display_code"`
}

// User response type
type User struct {
	ID                   string            `json:"id"`
	Handle               string            `json:"handle"`
	DisplayCode          int               `json:"display_code"`
	QuizAnswers          map[string]string `json:"quiz_answers"`
	VerificationQuestion string            `json:"verification_question"`
	VerificationAnswer   string            `json:"verification_answer"`
	Matched              bool              `json:"matched"`
}

// StatusResult response type
type StatusResult struct {
	State   string       `json:"state"`
	MatchID string       `json:"match_id,omitempty"`
	Self    *StatusSelf  `json:"self,omitempty"`
	Partner *StatusOther `json:"partner,omitempty"`
}

// StatusSelf is the caller's own block in a status response
type StatusSelf struct {
	Handle      string            `json:"handle"`
	DisplayCode int               `json:"display_code"`
	QuizAnswers map[string]string `json:"quiz_answers"`
}

// StatusOther is the partner block in a status response
type StatusOther struct {
	Handle               string            `json:"handle"`
	DisplayCode          int               `json:"display_code"`
	VerificationQuestion string            `json:"verification_question"`
	VerificationAnswer   string            `json:"verification_answer"`
	QuizAnswers          map[string]string `json:"quiz_answers"`
}

// VerifyResult response type
type VerifyResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Submitted string `json:"submitted,omitempty"`
}

// BatchResult response type
type BatchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Matches []struct {
		UserA string `json:"user_a"`
		UserB string `json:"user_b"`
		Score int    `json:"score"`
	} `json:"matches"`
	Count     int `json:"count"`
	Unmatched int `json:"unmatched"`
}

func (o *Output) printQuestions(qs []Question) {
	for _, q := range qs {
		fmt.Fprintf(o.w, "[%s] %s\n", q.ShortID, q.Text)
		fmt.Fprintf(o.w, "    %s\n", strings.Join(q.Options, " | "))
	}
}

func (o *Output) printAnswers(answers map[string]string) {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(o.w, "  %s: %s\n", k, answers[k])
	}
}

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.Handle, u.ID)
	fmt.Fprintf(o.w, "Display code: %d\n", u.DisplayCode)
	fmt.Fprintf(o.w, "Matched: %t\n", u.Matched)
	o.printAnswers(u.QuizAnswers)
}

func (o *Output) printStatus(s StatusResult) {
	fmt.Fprintf(o.w, "State: %s\n", s.State)
	if s.Partner == nil {
		return
	}
	fmt.Fprintf(o.w, "Match: %s\n", s.MatchID)
	fmt.Fprintf(o.w, "Partner: %s\n", s.Partner.Handle)
	fmt.Fprintf(o.w, "Their question: %s\n", s.Partner.VerificationQuestion)
	fmt.Fprintf(o.w, "Their answer: %s\n", s.Partner.VerificationAnswer)
	fmt.Fprintln(o.w, "Their answers:")
	o.printAnswers(s.Partner.QuizAnswers)
}

func (o *Output) printVerify(v VerifyResult) {
	if v.Success {
		fmt.Fprintln(o.w, "Verified! You found your partner.")
		return
	}
	fmt.Fprintf(o.w, "Not verified: %s\n", v.Message)
}

func (o *Output) printBatch(b BatchResult) {
	if !b.Success {
		fmt.Fprintf(o.w, "No matches: %s\n", b.Message)
		return
	}
	fmt.Fprintf(o.w, "Created %d matches, %d unmatched\n", b.Count, b.Unmatched)
	for _, m := range b.Matches {
		fmt.Fprintf(o.w, "  %s <-> %s (score %d)\n", m.UserA, m.UserB, m.Score)
	}
}
