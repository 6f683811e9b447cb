package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quizroom-service/internal/domain"
)

func seedRoom(t *testing.T, s *Store, code string) domain.Room {
	t.Helper()
	ctx := context.Background()
	user := domain.User{ID: "u-" + code, Username: "owner-" + code, Email: code + "@x.com"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	room := domain.Room{ID: "room-" + code, Code: code, CreatorID: user.ID, CreatedAt: time.Now()}
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func addQuestions(t *testing.T, s *Store, roomID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		q := domain.Question{
			ID:            fmt.Sprintf("%s-q%d", roomID, i),
			RoomID:        roomID,
			Text:          fmt.Sprintf("question %d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "a",
		}
		stored, err := s.AppendQuestion(context.Background(), q)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if stored.Sequence != i {
			t.Fatalf("expected sequence %d, got %d", i, stored.Sequence)
		}
	}
}

func TestUserUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.CreateUser(ctx, domain.User{ID: "1", Username: "alice", Email: "alice@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, domain.User{ID: "2", Username: "alice", Email: "other@x.com"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username conflict, got %v", err)
	}
	if err := s.CreateUser(ctx, domain.User{ID: "3", Username: "bob", Email: "ALICE@x.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email conflict, got %v", err)
	}

	byEmail, err := s.FindUserByLogin(ctx, "Alice@X.com")
	if err != nil || byEmail.ID != "1" {
		t.Fatalf("lookup by email: %+v %v", byEmail, err)
	}
	if _, err := s.FindUserByLogin(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentRoomCodeCreation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if err := s.CreateUser(ctx, domain.User{ID: "u1", Username: "u1"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	const attempts = 20
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.CreateRoom(ctx, domain.Room{ID: fmt.Sprintf("r%d", i), Code: "R1", CreatorID: "u1"})
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrRoomCodeTaken):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one winner, got %d", ok)
	}
}

func TestAppendQuestionExplicitSequence(t *testing.T) {
	s := NewStore()
	room := seedRoom(t, s, "R1")
	addQuestions(t, s, room.ID, 2)

	q := domain.Question{ID: "dup", RoomID: room.ID, Sequence: 2, Text: "t", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}
	if _, err := s.AppendQuestion(context.Background(), q); !errors.Is(err, domain.ErrSequenceTaken) {
		t.Fatalf("expected sequence conflict, got %v", err)
	}
	q.ID, q.Sequence = "gap", 5
	if _, err := s.AppendQuestion(context.Background(), q); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for gap, got %v", err)
	}
	q.ID, q.Sequence = "next", 3
	if _, err := s.AppendQuestion(context.Background(), q); err != nil {
		t.Fatalf("append explicit next: %v", err)
	}
	q.ID, q.RoomID, q.Sequence = "orphan", "missing", 0
	if _, err := s.AppendQuestion(context.Background(), q); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
}

func TestDeleteQuestionRenumbers(t *testing.T) {
	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("delete_%d_of_5", k), func(t *testing.T) {
			s := NewStore()
			room := seedRoom(t, s, "R1")
			addQuestions(t, s, room.ID, 5)
			ctx := context.Background()

			target, err := s.GetQuestionAt(ctx, room.ID, k)
			if err != nil {
				t.Fatalf("get at %d: %v", k, err)
			}
			if err := s.DeleteQuestion(ctx, target.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}

			remaining, _ := s.ListQuestions(ctx, room.ID)
			if len(remaining) != 4 {
				t.Fatalf("expected 4 questions, got %d", len(remaining))
			}
			prev := 0
			for i, q := range remaining {
				if q.Sequence != i+1 {
					t.Fatalf("position %d has sequence %d", i, q.Sequence)
				}
				var original int
				fmt.Sscanf(q.Text, "question %d", &original)
				if original == k || original <= prev {
					t.Fatalf("relative order broken: %v", remaining)
				}
				prev = original
			}
		})
	}
}

func TestDeleteRoomCascades(t *testing.T) {
	s := NewStore()
	room := seedRoom(t, s, "R1")
	addQuestions(t, s, room.ID, 3)
	ctx := context.Background()

	if err := s.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if _, err := s.GetRoom(ctx, room.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room gone, got %v", err)
	}
	if _, err := s.GetQuestion(ctx, room.ID+"-q1"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question gone, got %v", err)
	}
	if qs, _ := s.ListQuestions(ctx, room.ID); len(qs) != 0 {
		t.Fatalf("expected no questions, got %d", len(qs))
	}
	if err := s.CreateRoom(ctx, domain.Room{ID: "again", Code: "R1", CreatorID: room.CreatorID}); err != nil {
		t.Fatalf("code should be reusable after delete: %v", err)
	}
}

func TestTopResults(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 15; i++ {
		_ = s.AppendResult(ctx, domain.Result{ID: fmt.Sprintf("r%02d", i), Score: i, Timestamp: base})
	}

	top, err := s.TopResults(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 10 {
		t.Fatalf("expected 10, got %d", len(top))
	}
	for i, r := range top {
		if r.Score != 14-i {
			t.Fatalf("position %d: score %d", i, r.Score)
		}
	}

	all, _ := s.ListResults(ctx)
	if len(all) != 15 || all[0].ID != "r00" {
		t.Fatalf("list must keep insertion order, got %d entries", len(all))
	}
}
