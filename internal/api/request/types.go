package request

import (
	"encoding/json"

	"github.com/comate/comate/internal/model"
)

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Handle               string            `json:"handle"`
	QuizAnswers          model.QuizAnswers `json:"quiz_answers"`
	VerificationQuestion string            `json:"verification_question"`
	VerificationAnswer   string            `json:"verification_answer"`
}

// VerifyRequest is the request body for guessing the partner's display code.
// Code may be a JSON string or number.
type VerifyRequest struct {
	Code json.RawMessage `json:"code"`
}

// DecodedCode returns Code as a string, a json.Number or nil
func (r VerifyRequest) DecodedCode() (any, error) {
	if len(r.Code) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(r.Code, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(r.Code, &n); err != nil {
		return nil, err
	}
	return n, nil
}
