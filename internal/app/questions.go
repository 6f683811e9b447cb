package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizroom-service/internal/domain"
)

// NewQuestionInput carries an added question. A zero Sequence appends.
type NewQuestionInput struct {
	Text          string
	Options       []string
	CorrectAnswer string
	Sequence      int
}

// QuestionService is the question bank. Every mutation requires the requester
// to be the room's creator; reads require only an authenticated caller.
type QuestionService struct {
	rooms     RoomRepository
	questions QuestionRepository
	catalog   RoomCatalog
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewQuestionService(rooms RoomRepository, questions QuestionRepository, catalog RoomCatalog, logger *slog.Logger) *QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{
		rooms:     rooms,
		questions: questions,
		catalog:   catalog,
		logger:    logger.With("component", "questions"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Add validates and appends a question to the room.
func (s *QuestionService) Add(ctx context.Context, roomRef, requesterID string, in NewQuestionInput) (domain.Question, error) {
	q := domain.Question{
		Text:          strings.TrimSpace(in.Text),
		Options:       trimOptions(in.Options),
		CorrectAnswer: strings.TrimSpace(in.CorrectAnswer),
		Sequence:      in.Sequence,
	}
	if err := domain.ValidateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	if q.Sequence < 0 {
		return domain.Question{}, domain.Invalid("sequence number must be positive")
	}

	room, err := s.ownedRoom(ctx, roomRef, requesterID)
	if err != nil {
		return domain.Question{}, err
	}

	q.ID = s.newID()
	q.RoomID = room.ID
	q.CreatedAt = s.now().UTC()
	stored, err := s.questions.AppendQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("question added", "room_id", room.ID, "question_id", stored.ID, "sequence", stored.Sequence)
	return stored, nil
}

// Get returns a single question with its answer.
func (s *QuestionService) Get(ctx context.Context, questionID string) (domain.Question, error) {
	if questionID == "" {
		return domain.Question{}, domain.Invalid("question id is required")
	}
	return s.questions.GetQuestion(ctx, questionID)
}

// Update applies a partial patch to the question at sequence in the room and
// returns the room with its questions.
func (s *QuestionService) Update(ctx context.Context, roomRef, requesterID string, sequence int, patch domain.QuestionPatch) (domain.RoomWithQuestions, error) {
	if sequence <= 0 {
		return domain.RoomWithQuestions{}, domain.Invalid("sequence number is required")
	}
	room, err := s.ownedRoom(ctx, roomRef, requesterID)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	current, err := s.questions.GetQuestionAt(ctx, room.ID, sequence)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		patch.Text = &text
	}
	if patch.Options != nil {
		patch.Options = trimOptions(patch.Options)
	}
	if patch.CorrectAnswer != nil {
		answer := strings.TrimSpace(*patch.CorrectAnswer)
		patch.CorrectAnswer = &answer
	}
	updated := patch.Apply(current)
	if err := domain.ValidateQuestion(updated); err != nil {
		return domain.RoomWithQuestions{}, err
	}
	if err := s.questions.UpdateQuestion(ctx, updated); err != nil {
		return domain.RoomWithQuestions{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("question updated", "room_id", room.ID, "sequence", sequence)
	return s.snapshot(ctx, room)
}

// DeleteAt removes the question at sequence and renumbers the rest.
func (s *QuestionService) DeleteAt(ctx context.Context, roomRef, requesterID string, sequence int) (domain.RoomWithQuestions, error) {
	if sequence <= 0 {
		return domain.RoomWithQuestions{}, domain.Invalid("sequence number is required")
	}
	room, err := s.ownedRoom(ctx, roomRef, requesterID)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	q, err := s.questions.GetQuestionAt(ctx, room.ID, sequence)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	return s.remove(ctx, room, q)
}

// DeleteByID removes a question addressed by id and renumbers the rest of its room.
func (s *QuestionService) DeleteByID(ctx context.Context, questionID, requesterID string) (domain.RoomWithQuestions, error) {
	q, err := s.Get(ctx, questionID)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	room, err := s.ownedRoom(ctx, q.RoomID, requesterID)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	return s.remove(ctx, room, q)
}

// ListForRoom returns the room and all of its questions including answers.
func (s *QuestionService) ListForRoom(ctx context.Context, roomRef, requesterID string) (domain.RoomWithQuestions, error) {
	if requesterID == "" {
		return domain.RoomWithQuestions{}, domain.ErrUnauthenticated
	}
	room, err := resolveRoom(ctx, s.rooms, roomRef)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	return s.snapshot(ctx, room)
}

func (s *QuestionService) remove(ctx context.Context, room domain.Room, q domain.Question) (domain.RoomWithQuestions, error) {
	if err := s.questions.DeleteQuestion(ctx, q.ID); err != nil {
		return domain.RoomWithQuestions{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("question deleted", "room_id", room.ID, "question_id", q.ID, "sequence", q.Sequence)
	return s.snapshot(ctx, room)
}

func (s *QuestionService) ownedRoom(ctx context.Context, roomRef, requesterID string) (domain.Room, error) {
	if requesterID == "" {
		return domain.Room{}, domain.ErrUnauthenticated
	}
	room, err := resolveRoom(ctx, s.rooms, roomRef)
	if err != nil {
		return domain.Room{}, err
	}
	if room.CreatorID != requesterID {
		return domain.Room{}, domain.ErrNotRoomCreator
	}
	return room, nil
}

func (s *QuestionService) snapshot(ctx context.Context, room domain.Room) (domain.RoomWithQuestions, error) {
	questions, err := s.questions.ListQuestions(ctx, room.ID)
	if err != nil {
		return domain.RoomWithQuestions{}, err
	}
	return domain.RoomWithQuestions{Room: room, Questions: questions}, nil
}

func (s *QuestionService) invalidate(ctx context.Context) {
	invalidateCatalog(ctx, s.catalog, s.logger)
}

func trimOptions(options []string) []string {
	if options == nil {
		return nil
	}
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = strings.TrimSpace(opt)
	}
	return out
}
