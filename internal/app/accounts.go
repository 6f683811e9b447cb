package app

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizroom-service/internal/auth"
	"quizroom-service/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PasswordHasher is a slow, salted one-way hash.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Compare(hash, raw string) error
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (auth.Token, error)
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AccountService is the credential store: registration, login and identity lookup.
type AccountService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewAccountService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "accounts"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Register validates the input, hashes the password and stores a new user.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case username == "" || email == "" || in.Password == "":
		return domain.User{}, domain.Invalid("username, email and password are required")
	case !emailPattern.MatchString(email):
		return domain.User{}, domain.Invalid("invalid email format")
	case emailPattern.MatchString(username):
		return domain.User{}, domain.Invalid("username cannot be an email address")
	case len(in.Password) > auth.MaxPasswordBytes:
		return domain.User{}, domain.Invalid("password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate resolves a username or email plus password to a user.
// Unknown users and wrong passwords fail with the same error.
func (s *AccountService) Authenticate(ctx context.Context, login, password string) (domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return domain.User{}, domain.Invalid("username or email and password are required")
	}

	user, err := s.users.FindUserByLogin(ctx, login)
	if err != nil {
		if !isNotFound(err) {
			return domain.User{}, err
		}
		_ = s.hasher.Compare("", password)
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a session token.
func (s *AccountService) Login(ctx context.Context, login, password string) (auth.Token, error) {
	user, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return auth.Token{}, err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return auth.Token{}, err
	}
	s.logger.Debug("user logged in", "user_id", user.ID)
	return token, nil
}

func (s *AccountService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return s.users.GetUserByID(ctx, userID)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
