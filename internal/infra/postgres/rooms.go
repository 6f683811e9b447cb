package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"

	"quizroom-service/internal/domain"
)

const roomColumns = `id, room_code, creator_id, time_limit_minutes, created_at`

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	query := `
	INSERT INTO rooms (id, room_code, creator_id, time_limit_minutes, created_at) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, room.ID, room.Code, room.CreatorID, room.TimeLimitMinutes, room.CreatedAt)
	return translate("create room", err)
}

func (s *Store) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	room, err := scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return domain.Room{}, notFoundOr("get room", err, domain.ErrRoomNotFound)
	}
	return room, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	room, err := scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_code = $1`, code))
	if err != nil {
		return domain.Room{}, notFoundOr("get room by code", err, domain.ErrRoomNotFound)
	}
	return room, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.queryRooms(ctx, "list rooms", `SELECT `+roomColumns+` FROM rooms ORDER BY created_at, room_code`)
}

func (s *Store) ListRoomsByCreator(ctx context.Context, creatorID string) ([]domain.Room, error) {
	return s.queryRooms(ctx, "list rooms by creator",
		`SELECT `+roomColumns+` FROM rooms WHERE creator_id = $1 ORDER BY created_at, room_code`, creatorID)
}

// DeleteRoom locks the room row, removes its questions and then the room in one transaction.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete room", func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE room_id = $1`, id); err != nil {
			return translate("delete room questions", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
			return translate("delete room", err)
		}
		return nil
	})
}

func (s *Store) queryRooms(ctx context.Context, op, query string, args ...interface{}) ([]domain.Room, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return rooms, nil
}

// lockRoom takes a row lock on the room, serializing writers of its questions.
func lockRoom(ctx context.Context, tx pgx.Tx, id string) error {
	var locked string
	err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return notFoundOr("lock room", err, domain.ErrRoomNotFound)
	}
	return nil
}

func scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		room  domain.Room
		limit *int32
	)
	if err := row.Scan(&room.ID, &room.Code, &room.CreatorID, &limit, &room.CreatedAt); err != nil {
		return domain.Room{}, err
	}
	if limit != nil {
		minutes := int(*limit)
		room.TimeLimitMinutes = &minutes
	}
	return room, nil
}
