package domain

import "sort"

// DefaultLeaderboardLimit caps how many entries the leaderboard keeps.
const DefaultLeaderboardLimit = 50

// Ranks reports whether a orders before b: higher score first, then faster time.
func Ranks(a, b LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Time < b.Time
}

// SortLeaderboard orders entries in place. Full ties keep their existing order.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Ranks(entries[i], entries[j])
	})
}

// InsertRanked appends entry to board, re-sorts, truncates to limit and returns
// the new board with the 1-based rank of entry (0 when it fell off the end).
// The input slice is not modified.
func InsertRanked(board []LeaderboardEntry, entry LeaderboardEntry, limit int) ([]LeaderboardEntry, int) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	order := make([]int, len(board)+1)
	for i := range order {
		order[i] = i
	}
	at := func(i int) LeaderboardEntry {
		if i == len(board) {
			return entry
		}
		return board[i]
	}
	sort.SliceStable(order, func(i, j int) bool {
		return Ranks(at(order[i]), at(order[j]))
	})

	if len(order) > limit {
		order = order[:limit]
	}
	ranked := make([]LeaderboardEntry, len(order))
	rank := 0
	for pos, idx := range order {
		ranked[pos] = at(idx)
		if idx == len(board) {
			rank = pos + 1
		}
	}
	return ranked, rank
}
