package app

import (
	"sync"

	"csv-quiz-service/internal/domain"
)

// Broadcaster fans leaderboard snapshots out to live subscribers.
type Broadcaster struct {
	mu          sync.Mutex
	latest      []domain.LeaderboardEntry
	subscribers map[chan []domain.LeaderboardEntry]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[chan []domain.LeaderboardEntry]struct{})}
}

// Subscribe registers a subscriber and seeds it with initial. The caller must
// invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(initial []domain.LeaderboardEntry) (<-chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	if b.latest != nil {
		initial = b.latest
	}
	ch <- initial
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish sends board to every subscriber without blocking on slow ones.
func (b *Broadcaster) Publish(board []domain.LeaderboardEntry) {
	snapshot := append([]domain.LeaderboardEntry(nil), board...)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = snapshot
	for ch := range b.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the stale snapshot so a slow reader never blocks Finalize
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Subscribers reports the number of live subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
