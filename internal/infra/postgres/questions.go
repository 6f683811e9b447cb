package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"

	"quizroom-service/internal/domain"
)

const questionColumns = `id, room_id, sequence_number, text, options, correct_answer, created_at`

// AppendQuestion locks the room so concurrent appends to it serialize; the
// (room_id, sequence_number) unique constraint is checked at commit.
func (s *Store) AppendQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	err := s.inTx(ctx, "append question", func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, q.RoomID); err != nil {
			return err
		}

		var count int
		err := tx.QueryRow(ctx, `SELECT count(*) FROM questions WHERE room_id = $1`, q.RoomID).Scan(&count)
		if err != nil {
			return translate("count questions", err)
		}
		next := count + 1
		switch {
		case q.Sequence == 0:
			q.Sequence = next
		case q.Sequence < next:
			return domain.ErrSequenceTaken
		case q.Sequence > next:
			return domain.Invalid("sequence number must be %d", next)
		}

		query := `
		INSERT INTO questions (id, room_id, sequence_number, text, options, correct_answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err = tx.Exec(ctx, query, q.ID, q.RoomID, q.Sequence, q.Text, q.Options, q.CorrectAnswer, q.CreatedAt)
		return translate("insert question", err)
	})
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return domain.Question{}, notFoundOr("get question", err, domain.ErrQuestionNotFound)
	}
	return q, nil
}

func (s *Store) GetQuestionAt(ctx context.Context, roomID string, sequence int) (domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE room_id = $1 AND sequence_number = $2`
	q, err := scanQuestion(s.pool.QueryRow(ctx, query, roomID, sequence))
	if err != nil {
		return domain.Question{}, notFoundOr("get question at", err, domain.ErrQuestionNotFound)
	}
	return q, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	query := `
	UPDATE questions SET text = $2, options = $3, correct_answer = $4 WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, q.ID, q.Text, q.Options, q.CorrectAnswer)
	if err != nil {
		return translate("update question", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// DeleteQuestion removes the question and renumbers the rest of its room to
// 1..N-1 in their previous order.
func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete question", func(tx pgx.Tx) error {
		var roomID string
		err := tx.QueryRow(ctx, `SELECT room_id FROM questions WHERE id = $1`, id).Scan(&roomID)
		if err != nil {
			return notFoundOr("find question", err, domain.ErrQuestionNotFound)
		}
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
		if err != nil {
			return translate("delete question", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrQuestionNotFound
		}

		renumber := `
		UPDATE questions q SET sequence_number = ordered.position
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY sequence_number) AS position
			FROM questions WHERE room_id = $1
		) ordered
		WHERE q.id = ordered.id AND q.sequence_number <> ordered.position
		`
		_, err = tx.Exec(ctx, renumber, roomID)
		return translate("renumber questions", err)
	})
}

func (s *Store) ListQuestions(ctx context.Context, roomID string) ([]domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE room_id = $1 ORDER BY sequence_number`
	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, translate("list questions", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, translate("list questions", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list questions", err)
	}
	return questions, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.RoomID, &q.Sequence, &q.Text, &q.Options, &q.CorrectAnswer, &q.CreatedAt)
	return q, err
}
