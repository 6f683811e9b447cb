package app

import (
	"context"

	"quizroom-service/internal/domain"
)

// UserRepository stores identity records (in-memory, Postgres).
type UserRepository interface {
	// CreateUser fails with domain.ErrUsernameTaken or domain.ErrEmailTaken on duplicates.
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	// FindUserByLogin matches the username exactly or the email case-insensitively.
	FindUserByLogin(ctx context.Context, login string) (domain.User, error)
}

// RoomRepository stores rooms. Room codes are unique at the store level.
type RoomRepository interface {
	// CreateRoom fails with domain.ErrRoomCodeTaken when the code is in use.
	CreateRoom(ctx context.Context, room domain.Room) error
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	ListRoomsByCreator(ctx context.Context, creatorID string) ([]domain.Room, error)
	// DeleteRoom removes the room and all of its questions in one atomic step.
	DeleteRoom(ctx context.Context, id string) error
}

// QuestionRepository stores questions as rows keyed by id, ordered per room by sequence.
type QuestionRepository interface {
	// AppendQuestion stores q at the end of its room. A zero q.Sequence means
	// "next"; an explicit sequence already in use fails with domain.ErrSequenceTaken
	// and any other value than the next one is a validation error.
	AppendQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	GetQuestionAt(ctx context.Context, roomID string, sequence int) (domain.Question, error)
	// UpdateQuestion replaces text, options and answer of an existing question.
	UpdateQuestion(ctx context.Context, q domain.Question) error
	// DeleteQuestion removes a question and renumbers the rest of its room to 1..N-1.
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, roomID string) ([]domain.Question, error)
}

// ResultRepository is an append-only ledger of quiz attempts.
type ResultRepository interface {
	AppendResult(ctx context.Context, result domain.Result) error
	// TopResults returns at most limit results ordered by domain.SortResults.
	TopResults(ctx context.Context, limit int) ([]domain.Result, error)
	ListResults(ctx context.Context) ([]domain.Result, error)
	ListResultsForRoom(ctx context.Context, roomID string) ([]domain.Result, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	UserRepository
	RoomRepository
	QuestionRepository
	ResultRepository
}

// resolveRoom accepts either a room id or a room code.
func resolveRoom(ctx context.Context, rooms RoomRepository, ref string) (domain.Room, error) {
	if ref == "" {
		return domain.Room{}, domain.Invalid("room id is required")
	}
	room, err := rooms.GetRoom(ctx, ref)
	if err == nil {
		return room, nil
	}
	if !isNotFound(err) {
		return domain.Room{}, err
	}
	return rooms.GetRoomByCode(ctx, ref)
}
