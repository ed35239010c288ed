package memory

import (
	"context"
	"testing"
	"time"

	"csv-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Hour)
	ctx := context.Background()

	session := domain.QuizSession{Nickname: "Alice", QuestionIDs: []string{"q1"}, Score: 100}
	if err := store.Save(ctx, "tok", session); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Get(ctx, "tok")
	if err != nil || !ok {
		t.Fatalf("expected session present, ok=%v err=%v", ok, err)
	}
	if got.Nickname != "Alice" {
		t.Fatalf("unexpected session %+v", got)
	}

	_ = store.Delete(ctx, "tok")
	if _, ok, _ := store.Get(ctx, "tok"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreExpires(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Save(ctx, "old", domain.QuizSession{Nickname: "Old"})
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Fatalf("expected expired session to be gone")
	}

	_ = store.Save(ctx, "a", domain.QuizSession{Nickname: "A"})
	_ = store.Save(ctx, "stale", domain.QuizSession{Nickname: "S"})
	now = now.Add(2 * time.Minute)
	_ = store.Save(ctx, "b", domain.QuizSession{Nickname: "B"})
	if store.Len() != 1 {
		t.Fatalf("expected sweep to drop expired sessions, have %d", store.Len())
	}
}
