// Package scoring computes quiz-answer similarity between two users
package scoring

import (
	"sort"

	"github.com/comate/comate/internal/model"
)

// Score counts the questions both users answered with the same option.
// Empty answers never count, and missing keys on either side contribute zero.
func Score(v1, v2 model.QuizAnswers) int {
	score := 0
	for key, answer := range v1 {
		if answer != "" && v2[key] == answer {
			score++
		}
	}
	return score
}

// Explain returns the ids of the questions counted by Score, sorted
func Explain(v1, v2 model.QuizAnswers) []string {
	matched := []string{}
	for key, answer := range v1 {
		if answer != "" && v2[key] == answer {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return matched
}
