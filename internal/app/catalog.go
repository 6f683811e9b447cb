package app

import (
	"context"

	"quizroom-service/internal/domain"
)

// RoomCatalog serves the public room list. Implementations may cache; Invalidate
// is called after every room or question mutation.
type RoomCatalog interface {
	Rooms(ctx context.Context) ([]domain.PublicRoom, error)
	Invalidate(ctx context.Context) error
}

// CatalogLoader builds the public catalog straight from the store. It is also
// the uncached RoomCatalog.
type CatalogLoader struct {
	rooms     RoomRepository
	questions QuestionRepository
}

func NewCatalogLoader(rooms RoomRepository, questions QuestionRepository) *CatalogLoader {
	return &CatalogLoader{rooms: rooms, questions: questions}
}

// LoadCatalog returns every room with its questions in order and answers removed.
func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.PublicRoom, error) {
	rooms, err := l.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make([]domain.PublicRoom, 0, len(rooms))
	for _, room := range rooms {
		questions, err := l.questions.ListQuestions(ctx, room.ID)
		if err != nil {
			if isNotFound(err) {
				// deleted between the two reads
				continue
			}
			return nil, err
		}
		public := make([]domain.PublicQuestion, 0, len(questions))
		for _, q := range questions {
			public = append(public, q.Public())
		}
		catalog = append(catalog, domain.PublicRoom{Room: room, Questions: public})
	}
	return catalog, nil
}

func (l *CatalogLoader) Rooms(ctx context.Context) ([]domain.PublicRoom, error) {
	return l.LoadCatalog(ctx)
}

func (l *CatalogLoader) Invalidate(context.Context) error {
	return nil
}
