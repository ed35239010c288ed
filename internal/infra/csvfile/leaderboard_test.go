package csvfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"csv-quiz-service/internal/domain"
)

func TestLeaderboardMissingFileIsEmpty(t *testing.T) {
	store := NewLeaderboardStore(filepath.Join(t.TempDir(), "leaderboard.csv"))
	entries, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil board, got %#v", entries)
	}
}

func TestLeaderboardRoundTrip(t *testing.T) {
	store := NewLeaderboardStore(filepath.Join(t.TempDir(), "leaderboard.csv"))
	ctx := context.Background()
	want := []domain.LeaderboardEntry{
		{Nickname: "Alice", Score: 97.5, Time: 42},
		{Nickname: "Bob, Jr.", Score: 90, Time: 58},
		{Nickname: "Carol", Score: -2.5, Time: 600},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("save again: %v", err)
	}
	again, _ := store.Load(ctx)
	if !reflect.DeepEqual(again, want) {
		t.Fatalf("second round trip mismatch: %+v", again)
	}
}

func TestLeaderboardSkipsCorruptRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.csv")
	data := "nickname,score,time\n" +
		"Alice,100,30\n" +
		"Broken,abc,10\n" +
		",90,10\n" +
		"Legacy,85.0,41.0\n" +
		"NoTime,80,\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	entries, err := NewLeaderboardStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 valid rows, got %+v", entries)
	}
	if entries[1].Nickname != "Legacy" || entries[1].Score != 85 || entries[1].Time != 41 {
		t.Fatalf("unexpected legacy row: %+v", entries[1])
	}
}

func TestLeaderboardUnreadableHeaderKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.csv")
	data := "nick;score;time\nAlice,100,30\nBob,95,40\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewLeaderboardStore(path)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrLeaderboardCorrupt) {
		t.Fatalf("expected corrupt leaderboard error, got %v", err)
	}
	_, err := store.Update(ctx, func(cur []domain.LeaderboardEntry) []domain.LeaderboardEntry {
		next, _ := domain.InsertRanked(cur, domain.LeaderboardEntry{Nickname: "Carol", Score: 90, Time: 10}, 50)
		return next
	})
	if !errors.Is(err, domain.ErrLeaderboardCorrupt) {
		t.Fatalf("expected update to fail, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(after) != data {
		t.Fatalf("leaderboard file rewritten: %q", after)
	}
}

func TestLeaderboardConcurrentUpdates(t *testing.T) {
	store := NewLeaderboardStore(filepath.Join(t.TempDir(), "leaderboard.csv"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := domain.LeaderboardEntry{Nickname: fmt.Sprintf("p%02d", i), Score: float64(i), Time: i}
			_, err := store.Update(ctx, func(cur []domain.LeaderboardEntry) []domain.LeaderboardEntry {
				next, _ := domain.InsertRanked(cur, entry, 50)
				return next
			})
			if err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 40 {
		t.Fatalf("expected all 40 entries to survive, got %d", len(entries))
	}
	if entries[0].Nickname != "p39" || entries[39].Nickname != "p00" {
		t.Fatalf("unexpected order: first=%s last=%s", entries[0].Nickname, entries[39].Nickname)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(store.path), ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestLeaderboardExport(t *testing.T) {
	store := NewLeaderboardStore(filepath.Join(t.TempDir(), "leaderboard.csv"))
	ctx := context.Background()

	var buf bytes.Buffer
	if err := store.Export(ctx, &buf); err != nil {
		t.Fatalf("export empty: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "nickname,score,time" {
		t.Fatalf("unexpected empty export %q", buf.String())
	}

	_ = store.Save(ctx, []domain.LeaderboardEntry{{Nickname: "Alice", Score: 85, Time: 12}})
	buf.Reset()
	if err := store.Export(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), "Alice,85,12") {
		t.Fatalf("unexpected export %q", buf.String())
	}
}
