package csvfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"csv-quiz-service/internal/domain"
)

var leaderboardHeader = []string{"nickname", "score", "time"}

// LeaderboardStore persists the ranked leaderboard as CSV. All writes go through
// one mutex so simultaneous finishes cannot interleave.
type LeaderboardStore struct {
	path string
	mu   sync.Mutex
}

func NewLeaderboardStore(path string) *LeaderboardStore {
	return &LeaderboardStore{path: path}
}

// Load returns the persisted entries in file order. A missing file is an empty
// leaderboard; rows that do not parse are skipped.
func (s *LeaderboardStore) Load(_ context.Context) ([]domain.LeaderboardEntry, error) {
	return s.load()
}

// Save overwrites the leaderboard with entries as given.
func (s *LeaderboardStore) Save(_ context.Context, entries []domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(entries)
}

// Update runs load, fn and save as one serialized step and returns what was saved.
func (s *LeaderboardStore) Update(_ context.Context, fn func([]domain.LeaderboardEntry) []domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return nil, err
	}
	next := fn(current)
	if err := s.save(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Export copies the persisted file to w, writing just the header when the
// leaderboard is still empty.
func (s *LeaderboardStore) Export(_ context.Context, w io.Writer) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data, err = encodeCSV(leaderboardHeader, nil)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (s *LeaderboardStore) load() ([]domain.LeaderboardEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.LeaderboardEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries, err := parseLeaderboard(data)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *LeaderboardStore) save(entries []domain.LeaderboardEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Nickname,
			strconv.FormatFloat(e.Score, 'f', -1, 64),
			strconv.Itoa(e.Time),
		})
	}
	data, err := encodeCSV(leaderboardHeader, rows)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	return nil
}

// parseLeaderboard skips rows that do not parse. A header it cannot read
// fails the whole load, so the next save never truncates the file.
func parseLeaderboard(data []byte) ([]domain.LeaderboardEntry, error) {
	entries := []domain.LeaderboardEntry{}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}

	r := newReader(data)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable header: %v", domain.ErrLeaderboardCorrupt, err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[normalize(name)] = i
	}
	for _, name := range leaderboardHeader {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: header has no %q column", domain.ErrLeaderboardCorrupt, name)
		}
	}

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("leaderboard: skipping line %d: %v: %v", line, domain.ErrLeaderboardCorrupt, err)
			continue
		}
		if blank(row) {
			continue
		}
		entry, err := parseEntry(row, idx)
		if err != nil {
			log.Printf("leaderboard: skipping line %d: %v", line, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(row []string, idx map[string]int) (domain.LeaderboardEntry, error) {
	get := func(name string) (string, bool) {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	nickname, ok := get("nickname")
	if !ok || nickname == "" {
		return domain.LeaderboardEntry{}, fmt.Errorf("%w: missing nickname", domain.ErrLeaderboardCorrupt)
	}
	rawScore, _ := get("score")
	score, err := strconv.ParseFloat(rawScore, 64)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("%w: score %q", domain.ErrLeaderboardCorrupt, rawScore)
	}
	rawTime, _ := get("time")
	elapsed, err := strconv.Atoi(rawTime)
	if err != nil {
		f, ferr := strconv.ParseFloat(rawTime, 64)
		if ferr != nil || f < 0 {
			return domain.LeaderboardEntry{}, fmt.Errorf("%w: time %q", domain.ErrLeaderboardCorrupt, rawTime)
		}
		elapsed = int(f)
	}
	return domain.LeaderboardEntry{Nickname: nickname, Score: score, Time: elapsed}, nil
}
