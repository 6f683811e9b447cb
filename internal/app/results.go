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

const (
	// DefaultLeaderboardSize is the number of entries returned when no limit is given.
	DefaultLeaderboardSize = 10
	// MaxLeaderboardSize caps caller supplied limits.
	MaxLeaderboardSize = 100
)

// RecordInput is one quiz attempt. UserID is set only for authenticated submitters.
type RecordInput struct {
	UserName       string
	UserID         string
	RoomID         string
	Score          int
	TotalQuestions int
}

// ResultService is the append-only result ledger and leaderboard.
type ResultService struct {
	results ResultRepository
	feed    *LeaderboardFeed
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

func NewResultService(results ResultRepository, feed *LeaderboardFeed, logger *slog.Logger) *ResultService {
	if logger == nil {
		logger = slog.Default()
	}
	if feed == nil {
		feed = NewLeaderboardFeed()
	}
	return &ResultService{
		results: results,
		feed:    feed,
		logger:  logger.With("component", "results"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Record appends a result. Scores are stored as submitted.
func (s *ResultService) Record(ctx context.Context, in RecordInput) (domain.Result, error) {
	if outOfInt32(in.Score) || outOfInt32(in.TotalQuestions) {
		return domain.Result{}, domain.Invalid("score and total questions must fit in 32 bits")
	}
	result := domain.Result{
		ID:             s.newID(),
		UserName:       strings.TrimSpace(in.UserName),
		UserID:         in.UserID,
		RoomID:         strings.TrimSpace(in.RoomID),
		Score:          in.Score,
		TotalQuestions: in.TotalQuestions,
		Timestamp:      s.now().UTC(),
	}
	if err := s.results.AppendResult(ctx, result); err != nil {
		return domain.Result{}, err
	}
	s.logger.Info("result recorded", "result_id", result.ID, "room_id", result.RoomID, "score", result.Score)

	if lb, err := s.snapshot(ctx, DefaultLeaderboardSize); err != nil {
		s.logger.Warn("leaderboard refresh failed", "error", err)
	} else {
		s.feed.Publish(lb)
	}
	return result, nil
}

// Leaderboard returns the top limit results. Non-positive limits mean the default.
func (s *ResultService) Leaderboard(ctx context.Context, limit int) ([]domain.Result, error) {
	return s.results.TopResults(ctx, clampLimit(limit))
}

// All returns every recorded result.
func (s *ResultService) All(ctx context.Context) ([]domain.Result, error) {
	return s.results.ListResults(ctx)
}

// ForRoom returns the results recorded against roomID.
func (s *ResultService) ForRoom(ctx context.Context, roomID string) ([]domain.Result, error) {
	if roomID == "" {
		return nil, domain.Invalid("room id is required")
	}
	return s.results.ListResultsForRoom(ctx, roomID)
}

// Subscribe streams leaderboard snapshots, starting with the current one.
// The caller must invoke the returned cancel function.
func (s *ResultService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.snapshot(ctx, DefaultLeaderboardSize)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.Subscribe(initial)
	return ch, cancel, nil
}

func (s *ResultService) snapshot(ctx context.Context, limit int) (domain.Leaderboard, error) {
	stamp := s.now().UTC()
	entries, err := s.results.TopResults(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: stamp}, nil
}

func outOfInt32(v int) bool {
	return v < math.MinInt32 || v > math.MaxInt32
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		return MaxLeaderboardSize
	}
	return limit
}
