package model

// StatusState is what a polling user sees about their own match
type StatusState string

const (
	StatusIdle                StatusState = "idle"                 // No active match
	StatusPendingVerification StatusState = "pending_verification" // Active match not yet verified
	StatusMatched             StatusState = "matched"              // Active verified match
)

// HiddenHandle replaces the partner's handle in status views
const HiddenHandle = "hidden"

// SelfView is the polling user's own data inside a status response
type SelfView struct {
	Handle               string
	DisplayCode          int
	QuizAnswers          QuizAnswers
	VerificationQuestion string
}

// PartnerView is what the polling user may see about their partner before
// verification. Handle is always HiddenHandle.
type PartnerView struct {
	Handle               string
	DisplayCode          int
	VerificationQuestion string
	VerificationAnswer   string
	QuizAnswers          QuizAnswers
}

// Status is the result of a status query. Self and Partner are nil when idle.
type Status struct {
	State   StatusState
	MatchID MatchID
	Self    *SelfView
	Partner *PartnerView
}

// VerifyResult is the outcome of a display code guess
type VerifyResult struct {
	Success bool
	// Submitted is the normalized guess, echoed back on failure
	Submitted string
}

// PairResult describes one pair committed by a batch pass
type PairResult struct {
	UserAHandle string
	UserBHandle string
	Score       int
}

// BatchResult summarizes one batch-matching pass
type BatchResult struct {
	Candidates int
	Pairs      []PairResult
	Created    int
	Unmatched  int
}

// Stats holds aggregate counts
type Stats struct {
	Users   int
	Matches int
}
