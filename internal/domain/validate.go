package domain

import (
	"sort"
	"strings"
)

// ValidateQuestion checks text, the four options and that the correct answer is one of them.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return Invalid("question text is required")
	}
	if len(q.Options) != OptionCount {
		return Invalid("exactly %d options are required, got %d", OptionCount, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return Invalid("option %d is blank", i+1)
		}
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return Invalid("correct answer is required")
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return Invalid("correct answer must be one of the options")
}

// SortResults orders results for the leaderboard: score desc, then earliest
// submission, then id so equal scores rank deterministically.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Timestamp.Equal(results[j].Timestamp) {
			return results[i].Timestamp.Before(results[j].Timestamp)
		}
		return results[i].ID < results[j].ID
	})
}
