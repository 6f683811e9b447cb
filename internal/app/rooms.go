package app

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizroom-service/internal/domain"
)

// CreateRoomInput carries the fields of a room creation request.
type CreateRoomInput struct {
	Code             string
	TimeLimitMinutes *int
}

// RoomService is the room registry. Rooms are owned by their creator.
type RoomService struct {
	users   UserRepository
	rooms   RoomRepository
	catalog RoomCatalog
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

func NewRoomService(users UserRepository, rooms RoomRepository, catalog RoomCatalog, logger *slog.Logger) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomService{
		users:   users,
		rooms:   rooms,
		catalog: catalog,
		logger:  logger.With("component", "rooms"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create stores a room owned by userID. Duplicate codes fail with domain.ErrRoomCodeTaken.
func (s *RoomService) Create(ctx context.Context, userID string, in CreateRoomInput) (domain.Room, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return domain.Room{}, domain.Invalid("room code is required")
	}
	if in.TimeLimitMinutes != nil && (*in.TimeLimitMinutes < 0 || *in.TimeLimitMinutes > math.MaxInt32) {
		return domain.Room{}, domain.Invalid("time limit must be between 0 and %d", math.MaxInt32)
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if isNotFound(err) {
			return domain.Room{}, domain.ErrUnauthenticated
		}
		return domain.Room{}, err
	}
	// a code may not equal an existing room id; lookups try the id first
	if _, err := s.rooms.GetRoom(ctx, code); err == nil {
		return domain.Room{}, domain.ErrRoomCodeTaken
	} else if !isNotFound(err) {
		return domain.Room{}, err
	}

	room := domain.Room{
		ID:               s.newID(),
		Code:             code,
		CreatorID:        userID,
		TimeLimitMinutes: in.TimeLimitMinutes,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("room created", "room_id", room.ID, "room_code", room.Code, "creator_id", userID)
	return room, nil
}

// List returns the public catalog. Answer keys are never included.
func (s *RoomService) List(ctx context.Context) ([]domain.PublicRoom, error) {
	return s.catalog.Rooms(ctx)
}

// ListMine returns the rooms created by userID.
func (s *RoomService) ListMine(ctx context.Context, userID string) ([]domain.Room, error) {
	return s.rooms.ListRoomsByCreator(ctx, userID)
}

// Get looks a room up by id or code.
func (s *RoomService) Get(ctx context.Context, ref string) (domain.Room, error) {
	return resolveRoom(ctx, s.rooms, ref)
}

// Delete removes a room and its questions. Only the creator may delete.
func (s *RoomService) Delete(ctx context.Context, ref, requesterID string) error {
	room, err := resolveRoom(ctx, s.rooms, ref)
	if err != nil {
		return err
	}
	if room.CreatorID != requesterID {
		return domain.ErrNotRoomCreator
	}
	if err := s.rooms.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("room deleted", "room_id", room.ID, "room_code", room.Code)
	return nil
}

func (s *RoomService) invalidate(ctx context.Context) {
	invalidateCatalog(ctx, s.catalog, s.logger)
}

func invalidateCatalog(ctx context.Context, catalog RoomCatalog, logger *slog.Logger) {
	if err := catalog.Invalidate(ctx); err != nil {
		logger.Warn("catalog invalidation failed", "error", err)
	}
}
