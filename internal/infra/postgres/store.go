package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizroom-service/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store implements every app repository on a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect opens a pool for dsn. maxConns <= 0 keeps the pgx default.
func Connect(ctx context.Context, dsn string, maxConns int32, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewStore(pool, logger), nil
}

func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger.With("component", "postgres")}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// inTx runs fn in a transaction. Errors from fn are returned untouched after
// rollback; commit failures go through translate.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.StorageFailure(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn("rollback failed", "op", op, "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(op, err)
	}
	return nil
}

// translate maps driver errors onto the domain taxonomy. Errors that already
// carry a domain kind pass through.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			switch pgErr.ConstraintName {
			case "users_username_key":
				return domain.ErrUsernameTaken
			case "users_email_lower_key":
				return domain.ErrEmailTaken
			case "rooms_room_code_key":
				return domain.ErrRoomCodeTaken
			case "questions_room_sequence_key":
				return domain.ErrSequenceTaken
			}
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			switch pgErr.ConstraintName {
			case "rooms_creator_fkey":
				return domain.ErrUserNotFound
			case "questions_room_fkey":
				return domain.ErrRoomNotFound
			}
		}
	}
	if isDomainError(err) {
		return err
	}
	return domain.StorageFailure(op, err)
}

func isDomainError(err error) bool {
	for _, kind := range []error{
		domain.ErrValidation,
		domain.ErrConflict,
		domain.ErrUnauthenticated,
		domain.ErrForbidden,
		domain.ErrNotFound,
		domain.ErrStorage,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// notFoundOr maps pgx.ErrNoRows to notFound and everything else through translate.
func notFoundOr(op string, err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return translate(op, err)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
