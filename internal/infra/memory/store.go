package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quizroom-service/internal/domain"
)

// Store is an in-process implementation of every app repository. A single
// RWMutex guards all maps, so multi-step writes (cascade delete, renumbering)
// are atomic with respect to readers.
type Store struct {
	mu sync.RWMutex

	users     map[string]domain.User
	usernames map[string]string
	emails    map[string]string

	rooms     map[string]domain.Room
	roomCodes map[string]string

	questions     map[string]domain.Question
	roomQuestions map[string][]string

	results []domain.Result
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]domain.User),
		usernames:     make(map[string]string),
		emails:        make(map[string]string),
		rooms:         make(map[string]domain.Room),
		roomCodes:     make(map[string]string),
		questions:     make(map[string]domain.Question),
		roomQuestions: make(map[string][]string),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[user.Username]; ok {
		return domain.ErrUsernameTaken
	}
	emailKey := strings.ToLower(user.Email)
	if emailKey != "" {
		if _, ok := s.emails[emailKey]; ok {
			return domain.ErrEmailTaken
		}
		s.emails[emailKey] = user.ID
	}
	s.usernames[user.Username] = user.ID
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) FindUserByLogin(_ context.Context, login string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.usernames[login]; ok {
		return s.users[id], nil
	}
	if id, ok := s.emails[strings.ToLower(login)]; ok {
		return s.users[id], nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) CreateRoom(_ context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomCodes[room.Code]; ok {
		return domain.ErrRoomCodeTaken
	}
	if _, ok := s.users[room.CreatorID]; !ok {
		return domain.ErrUserNotFound
	}
	s.roomCodes[room.Code] = room.ID
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *Store) GetRoom(_ context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (s *Store) GetRoomByCode(_ context.Context, code string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roomCodes[code]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return cloneRoom(s.rooms[id]), nil
}

func (s *Store) ListRooms(_ context.Context) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectRoomsLocked(func(domain.Room) bool { return true }), nil
}

func (s *Store) ListRoomsByCreator(_ context.Context, creatorID string) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectRoomsLocked(func(r domain.Room) bool { return r.CreatorID == creatorID }), nil
}

func (s *Store) collectRoomsLocked(keep func(domain.Room) bool) []domain.Room {
	rooms := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if keep(room) {
			rooms = append(rooms, cloneRoom(room))
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
		}
		return rooms[i].Code < rooms[j].Code
	})
	return rooms
}

func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	for _, qid := range s.roomQuestions[id] {
		delete(s.questions, qid)
	}
	delete(s.roomQuestions, id)
	delete(s.roomCodes, room.Code)
	delete(s.rooms, id)
	return nil
}

func (s *Store) AppendQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[q.RoomID]; !ok {
		return domain.Question{}, domain.ErrRoomNotFound
	}
	ids := s.roomQuestions[q.RoomID]
	next := len(ids) + 1
	switch {
	case q.Sequence == 0:
		q.Sequence = next
	case q.Sequence < next:
		return domain.Question{}, domain.ErrSequenceTaken
	case q.Sequence > next:
		return domain.Question{}, domain.Invalid("sequence number must be %d", next)
	}

	q = cloneQuestion(q)
	s.questions[q.ID] = q
	s.roomQuestions[q.RoomID] = append(ids, q.ID)
	return cloneQuestion(q), nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) GetQuestionAt(_ context.Context, roomID string, sequence int) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rooms[roomID]; !ok {
		return domain.Question{}, domain.ErrRoomNotFound
	}
	ids := s.roomQuestions[roomID]
	if sequence < 1 || sequence > len(ids) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(s.questions[ids[sequence-1]]), nil
}

func (s *Store) UpdateQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.questions[q.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	current.Text = q.Text
	current.Options = append([]string(nil), q.Options...)
	current.CorrectAnswer = q.CorrectAnswer
	s.questions[q.ID] = current
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)

	ids := s.roomQuestions[q.RoomID]
	kept := make([]string, 0, len(ids))
	for _, qid := range ids {
		if qid != id {
			kept = append(kept, qid)
		}
	}
	for i, qid := range kept {
		renumbered := s.questions[qid]
		renumbered.Sequence = i + 1
		s.questions[qid] = renumbered
	}
	s.roomQuestions[q.RoomID] = kept
	return nil
}

func (s *Store) ListQuestions(_ context.Context, roomID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.roomQuestions[roomID]
	out := make([]domain.Question, 0, len(ids))
	for _, qid := range ids {
		out = append(out, cloneQuestion(s.questions[qid]))
	}
	return out, nil
}

func (s *Store) AppendResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *Store) TopResults(_ context.Context, limit int) ([]domain.Result, error) {
	s.mu.RLock()
	ranked := append([]domain.Result(nil), s.results...)
	s.mu.RUnlock()

	domain.SortResults(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []domain.Result{}
	}
	return ranked, nil
}

func (s *Store) ListResults(_ context.Context) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]domain.Result, 0, len(s.results)), s.results...), nil
}

func (s *Store) ListResultsForRoom(_ context.Context, roomID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range s.results {
		if r.RoomID == roomID {
			out = append(out, r)
		}
	}
	return out, nil
}

func cloneRoom(r domain.Room) domain.Room {
	if r.TimeLimitMinutes != nil {
		limit := *r.TimeLimitMinutes
		r.TimeLimitMinutes = &limit
	}
	return r
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
