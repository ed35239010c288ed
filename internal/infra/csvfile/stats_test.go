package csvfile

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStatsStorePersistsCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong_answers.csv")
	ctx := context.Background()

	store := NewStatsStore(path)
	for _, id := range []string{"Q1", "Q2", "Q1"} {
		if err := store.Increment(ctx, id); err != nil {
			t.Fatalf("increment %s: %v", id, err)
		}
	}

	reopened := NewStatsStore(path)
	counts, err := reopened.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["Q1"] != 2 || counts["Q2"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	if err := reopened.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	counts, _ = NewStatsStore(path).Counts(ctx)
	if len(counts) != 0 {
		t.Fatalf("expected counts cleared, got %v", counts)
	}
}
