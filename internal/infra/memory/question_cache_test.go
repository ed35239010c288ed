package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"csv-quiz-service/internal/domain"
)

func TestQuestionCacheLoadsOnce(t *testing.T) {
	source := &countingSource{questions: sampleBank()}
	cache := NewQuestionCache(source, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Questions(ctx); err != nil {
				t.Errorf("questions: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := cache.Question(ctx, "q2"); err != nil {
		t.Fatalf("question: %v", err)
	}
	if source.loads() != 1 {
		t.Fatalf("expected a single load, got %d", source.loads())
	}
}

func TestQuestionCacheUnknownID(t *testing.T) {
	cache := NewQuestionCache(&countingSource{questions: sampleBank()}, 0)
	if _, err := cache.Question(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuestionCacheReplaceInvalidates(t *testing.T) {
	source := &countingSource{questions: sampleBank()}
	cache := NewQuestionCache(source, 0)
	ctx := context.Background()

	_, _ = cache.Questions(ctx)
	if _, err := cache.Replace(ctx, strings.NewReader("ignored")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	questions, err := cache.Questions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 1 || source.loads() != 2 {
		t.Fatalf("expected reload of replaced bank, got %d questions after %d loads", len(questions), source.loads())
	}
}

func TestQuestionCacheTTLExpiry(t *testing.T) {
	source := &countingSource{questions: sampleBank()}
	cache := NewQuestionCache(source, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }
	ctx := context.Background()

	_, _ = cache.Questions(ctx)
	now = now.Add(30 * time.Second)
	_, _ = cache.Questions(ctx)
	if source.loads() != 1 {
		t.Fatalf("expected cache hit before expiry, loads=%d", source.loads())
	}
	now = now.Add(2 * time.Minute)
	_, _ = cache.Questions(ctx)
	if source.loads() != 2 {
		t.Fatalf("expected reload after expiry, loads=%d", source.loads())
	}
}

func TestQuestionCacheDoesNotCacheErrors(t *testing.T) {
	source := &countingSource{err: domain.ErrQuestionBankMissing}
	cache := NewQuestionCache(source, 0)
	ctx := context.Background()

	if _, err := cache.Questions(ctx); !errors.Is(err, domain.ErrQuestionBankMissing) {
		t.Fatalf("expected missing bank, got %v", err)
	}
	source.setErr(nil, sampleBank())
	if _, err := cache.Questions(ctx); err != nil {
		t.Fatalf("expected recovery once the bank exists, got %v", err)
	}
}

func TestQuestionCacheReplaceDuringLoadIsNotOverwritten(t *testing.T) {
	source := &gatedSource{
		bank:    []domain.Question{{ID: "old", Prompt: "Old?", Choices: []string{"a"}, CorrectAnswer: "a"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewQuestionCache(source, 0)
	ctx := context.Background()

	done := make(chan []domain.Question)
	go func() {
		questions, err := cache.Questions(ctx)
		if err != nil {
			t.Errorf("questions: %v", err)
		}
		done <- questions
	}()

	<-source.started
	if _, err := cache.Replace(ctx, strings.NewReader("ignored")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	close(source.release)

	if got := <-done; len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("reader overlapping the replace got %+v", got)
	}
	questions, err := cache.Questions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "new" {
		t.Fatalf("expected replaced bank, cache serves %+v", questions)
	}
	if _, err := cache.Question(ctx, "old"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected old question gone, got %v", err)
	}
}

// gatedSource blocks its first Load after reading the bank until release is
// closed.
type gatedSource struct {
	mu      sync.Mutex
	bank    []domain.Question
	calls   int
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Load(context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	bank := s.bank
	s.mu.Unlock()

	if first {
		close(s.started)
		<-s.release
	}
	return bank, nil
}

func (s *gatedSource) Replace(_ context.Context, _ io.Reader) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank = []domain.Question{{ID: "new", Prompt: "New?", Choices: []string{"b"}, CorrectAnswer: "b"}}
	return s.bank, nil
}

type countingSource struct {
	mu        sync.Mutex
	calls     int
	questions []domain.Question
	err       error
}

func (s *countingSource) Load(context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.questions, s.err
}

func (s *countingSource) Replace(_ context.Context, _ io.Reader) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = s.questions[:1]
	return s.questions, nil
}

func (s *countingSource) loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingSource) setErr(err error, questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.questions = questions
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What is 2 + 2?", Choices: []string{"3", "4", "5"}, CorrectAnswer: "4"},
		{ID: "q2", Prompt: "Capital of France?", Choices: []string{"Paris", "Rome"}, CorrectAnswer: "Paris"},
	}
}
