package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"

	"quizroom-service/internal/domain"
)

const resultColumns = `id, user_name, user_id, room_id, score, total_questions, created_at`

func (s *Store) AppendResult(ctx context.Context, r domain.Result) error {
	query := `
	INSERT INTO results (id, user_name, user_id, room_id, score, total_questions, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query, r.ID, r.UserName, nullable(r.UserID), r.RoomID, r.Score, r.TotalQuestions, r.Timestamp)
	return translate("append result", err)
}

func (s *Store) TopResults(ctx context.Context, limit int) ([]domain.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results ORDER BY score DESC, created_at, id LIMIT $1`
	return s.queryResults(ctx, "top results", query, limit)
}

func (s *Store) ListResults(ctx context.Context) ([]domain.Result, error) {
	return s.queryResults(ctx, "list results", `SELECT `+resultColumns+` FROM results ORDER BY created_at, id`)
}

func (s *Store) ListResultsForRoom(ctx context.Context, roomID string) ([]domain.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE room_id = $1 ORDER BY created_at, id`
	return s.queryResults(ctx, "list room results", query, roomID)
}

func (s *Store) queryResults(ctx context.Context, op, query string, args ...interface{}) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	results := make([]domain.Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return results, nil
}

func scanResult(row pgx.Row) (domain.Result, error) {
	var (
		r      domain.Result
		userID *string
	)
	if err := row.Scan(&r.ID, &r.UserName, &userID, &r.RoomID, &r.Score, &r.TotalQuestions, &r.Timestamp); err != nil {
		return domain.Result{}, err
	}
	r.UserID = deref(userID)
	return r, nil
}
