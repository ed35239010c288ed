package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestStatsStoreCounts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStatsStore(newClient(mr))
	ctx := context.Background()

	for _, id := range []string{"q1", "q1", "q7"} {
		if err := store.Increment(ctx, id); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if got := mr.HGet("quiz:stats:wrong", "q1"); got != "2" {
		t.Fatalf("expected q1=2 in redis, got %q", got)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["q1"] != 2 || counts["q7"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	counts, _ = store.Counts(ctx)
	if len(counts) != 0 {
		t.Fatalf("expected reset counts, got %v", counts)
	}
}
