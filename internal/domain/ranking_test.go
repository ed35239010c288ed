package domain

import (
	"fmt"
	"testing"
)

func TestInsertRankedTieBreaksOnTime(t *testing.T) {
	board := []LeaderboardEntry{{Nickname: "slow", Score: 90, Time: 58}}

	got, rank := InsertRanked(board, LeaderboardEntry{Nickname: "fast", Score: 90, Time: 42}, 50)
	if rank != 1 {
		t.Fatalf("expected fast entry ranked 1, got %d", rank)
	}
	if got[0].Nickname != "fast" || got[1].Nickname != "slow" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(board) != 1 || board[0].Nickname != "slow" {
		t.Fatalf("input board was modified: %+v", board)
	}
}

func TestInsertRankedScoreBeatsTime(t *testing.T) {
	board := []LeaderboardEntry{
		{Nickname: "a", Score: 95, Time: 300},
		{Nickname: "b", Score: 80, Time: 10},
	}
	got, rank := InsertRanked(board, LeaderboardEntry{Nickname: "c", Score: 85, Time: 1}, 50)
	if rank != 2 {
		t.Fatalf("expected rank 2, got %d", rank)
	}
	want := []string{"a", "c", "b"}
	for i, name := range want {
		if got[i].Nickname != name {
			t.Fatalf("position %d: expected %s, got %+v", i, name, got)
		}
	}
}

func TestInsertRankedFullTieKeepsExistingFirst(t *testing.T) {
	board := []LeaderboardEntry{{Nickname: "first", Score: 70, Time: 30}}
	got, rank := InsertRanked(board, LeaderboardEntry{Nickname: "second", Score: 70, Time: 30}, 50)
	if rank != 2 || got[0].Nickname != "first" {
		t.Fatalf("expected existing entry to stay ahead, got rank %d board %+v", rank, got)
	}
}

func TestInsertRankedTruncatesAndEvictsNewcomer(t *testing.T) {
	board := make([]LeaderboardEntry, 0, 50)
	for i := 0; i < 50; i++ {
		board = append(board, LeaderboardEntry{Nickname: fmt.Sprintf("p%d", i), Score: 100, Time: i})
	}

	got, rank := InsertRanked(board, LeaderboardEntry{Nickname: "late", Score: -10, Time: 1}, 50)
	if len(got) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(got))
	}
	if rank != 0 {
		t.Fatalf("expected newcomer evicted, got rank %d", rank)
	}

	got, rank = InsertRanked(board, LeaderboardEntry{Nickname: "top", Score: 100, Time: 0}, 50)
	if len(got) != 50 || rank != 2 {
		t.Fatalf("expected 50 entries with newcomer at 2, got len=%d rank=%d", len(got), rank)
	}
	if got[49].Nickname != "p48" {
		t.Fatalf("expected p49 evicted, last is %s", got[49].Nickname)
	}
}

func TestSortLeaderboardOrdering(t *testing.T) {
	entries := []LeaderboardEntry{
		{Nickname: "x", Score: 50, Time: 10},
		{Nickname: "y", Score: 97.5, Time: 100},
		{Nickname: "z", Score: 97.5, Time: 20},
		{Nickname: "w", Score: -5, Time: 1},
	}
	SortLeaderboard(entries)
	for i := 1; i < len(entries); i++ {
		a, b := entries[i-1], entries[i]
		if !(a.Score > b.Score || (a.Score == b.Score && a.Time <= b.Time)) {
			t.Fatalf("entries out of order at %d: %+v", i, entries)
		}
	}
}

func TestQuizSessionStates(t *testing.T) {
	var s QuizSession
	if s.Active() || s.Finished() {
		t.Fatalf("zero session must be inactive")
	}
}
