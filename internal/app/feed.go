package app

import (
	"sync"

	"quizroom-service/internal/domain"
)

const feedBuffer = 8

// LeaderboardFeed fans leaderboard snapshots out to subscribers. A slow
// subscriber only ever misses intermediate snapshots, never the newest one.
type LeaderboardFeed struct {
	mu          sync.Mutex
	latest      domain.Leaderboard
	hasLatest   bool
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Publish broadcasts lb unless a newer snapshot was already published.
func (f *LeaderboardFeed) Publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hasLatest && lb.UpdatedAt.Before(f.latest.UpdatedAt) {
		return
	}
	f.latest = lb
	f.hasLatest = true
	for ch := range f.subscribers {
		deliverLatest(ch, lb)
	}
}

// Subscribe registers a channel and sends it initial, or the last published
// snapshot when that one is newer. The caller must invoke cancel.
func (f *LeaderboardFeed) Subscribe(initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, feedBuffer)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	snapshot := initial
	if f.hasLatest && !f.latest.UpdatedAt.Before(initial.UpdatedAt) {
		snapshot = f.latest
	}
	ch <- snapshot
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func deliverLatest(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	select {
	case ch <- lb:
	default:
		// full: drop the oldest queued snapshot
		select {
		case <-ch:
		default:
		}
		ch <- lb
	}
}
