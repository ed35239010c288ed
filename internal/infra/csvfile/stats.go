package csvfile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
)

var statsHeader = []string{"question_id", "count"}

// StatsStore keeps cumulative wrong-answer counts per question in a CSV file.
// Counts are loaded on first use and written through on every change.
type StatsStore struct {
	path   string
	mu     sync.Mutex
	counts map[string]int
}

func NewStatsStore(path string) *StatsStore {
	return &StatsStore{path: path}
}

func (s *StatsStore) Increment(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.counts[questionID]++
	return s.persist()
}

func (s *StatsStore) Counts(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(s.counts))
	for id, n := range s.counts {
		out[id] = n
	}
	return out, nil
}

func (s *StatsStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = map[string]int{}
	return s.persist()
}

func (s *StatsStore) ensureLoaded() error {
	if s.counts != nil {
		return nil
	}
	counts := map[string]int{}
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read stats: %w", err)
	}
	if err == nil {
		records, err := newReader(data).ReadAll()
		if err != nil {
			return fmt.Errorf("parse stats: %w", err)
		}
		for i, row := range records {
			if i == 0 || len(row) < 2 {
				continue
			}
			n, err := strconv.Atoi(row[1])
			if err != nil || n < 0 {
				log.Printf("stats: skipping line %d: bad count %q", i+1, row[1])
				continue
			}
			counts[row[0]] += n
		}
	}
	s.counts = counts
	return nil
}

func (s *StatsStore) persist() error {
	ids := make([]string, 0, len(s.counts))
	for id := range s.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, strconv.Itoa(s.counts[id])})
	}
	data, err := encodeCSV(statsHeader, rows)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}
