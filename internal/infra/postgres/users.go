package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"

	"quizroom-service/internal/domain"
)

const userColumns = `id, username, email, password_hash, created_at`

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	query := `
	INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, user.ID, user.Username, nullable(user.Email), user.PasswordHash, user.CreatedAt)
	return translate("create user", err)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, notFoundOr("get user", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (domain.User, error) {
	query := `
	SELECT ` + userColumns + ` FROM users
	WHERE username = $1 OR lower(email) = lower($1)
	ORDER BY (username = $1) DESC
	LIMIT 1
	`
	user, err := scanUser(s.pool.QueryRow(ctx, query, login))
	if err != nil {
		return domain.User{}, notFoundOr("find user", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user  domain.User
		email *string
	)
	if err := row.Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return domain.User{}, err
	}
	user.Email = deref(email)
	return user, nil
}
