package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidateQuestion(t *testing.T) {
	valid := Question{
		Text:          "What is 2 + 2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: "4",
	}
	if err := ValidateQuestion(valid); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	cases := map[string]func(q *Question){
		"blank text":       func(q *Question) { q.Text = "  " },
		"three options":    func(q *Question) { q.Options = q.Options[:3] },
		"blank option":     func(q *Question) { q.Options = []string{"3", " ", "5", "6"} },
		"missing answer":   func(q *Question) { q.CorrectAnswer = "" },
		"answer not found": func(q *Question) { q.CorrectAnswer = "7" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			q := valid
			q.Options = append([]string(nil), valid.Options...)
			mutate(&q)
			if err := ValidateQuestion(q); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSortResultsTieBreaks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	results := []Result{
		{ID: "c", Score: 5, Timestamp: base.Add(time.Minute)},
		{ID: "b", Score: 5, Timestamp: base},
		{ID: "a", Score: 9, Timestamp: base.Add(time.Hour)},
		{ID: "d", Score: 5, Timestamp: base},
	}
	SortResults(results)

	want := []string{"a", "b", "d", "c"}
	for i, id := range want {
		if results[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, results[i].ID)
		}
	}
}

func TestPublicQuestionDropsAnswer(t *testing.T) {
	q := Question{Sequence: 2, Text: "t", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "b"}
	pub := q.Public()
	pub.Options[0] = "changed"
	if q.Options[0] != "a" {
		t.Fatalf("public view must not alias question options")
	}
	if pub.Sequence != 2 || pub.Text != "t" {
		t.Fatalf("unexpected public view %+v", pub)
	}
}
