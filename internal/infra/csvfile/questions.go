package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"csv-quiz-service/internal/domain"
)

var (
	idColumns     = []string{"id", "question_id", "題號", "题号"}
	promptColumns = []string{"question", "prompt", "題目", "题目"}
	answerColumns = []string{"answer", "correct_answer", "正確答案", "正确答案"}
	errorColumns  = []string{"error_count", "errors", "錯誤次數", "错误次数"}
	listColumns   = []string{"choices", "options", "選項", "选项"}
	choicePrefix  = []string{"option", "choice", "選項", "选项"}
)

// QuestionStore reads and replaces the question bank CSV.
type QuestionStore struct {
	path string
	mu   sync.Mutex
}

func NewQuestionStore(path string) *QuestionStore {
	return &QuestionStore{path: path}
}

// Load parses the bank file.
func (s *QuestionStore) Load(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuestionBankMissing, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return ParseQuestions(data)
}

// Replace validates the uploaded bank and overwrites the file with it. A bank
// that does not parse is rejected and the current file is kept.
func (s *QuestionStore) Replace(_ context.Context, r io.Reader) ([]domain.Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	questions, err := ParseQuestions(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path, data); err != nil {
		return nil, fmt.Errorf("write question bank: %w", err)
	}
	return questions, nil
}

type columnMap struct {
	id, prompt, answer, errors, list int
	choices                          []int
}

// ParseQuestions parses a bank keyed by header names.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	records, err := newReader(data).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuestionBankMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrQuestionBankMalformed)
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(records)-1)
	seen := make(map[string]int, len(records)-1)
	for i, row := range records[1:] {
		if blank(row) {
			continue
		}
		line := i + 2

		q := domain.Question{
			ID:            cell(row, cols.id),
			Prompt:        cell(row, cols.prompt),
			CorrectAnswer: cell(row, cols.answer),
			Choices:       choices(row, cols),
		}
		if q.ID == "" {
			q.ID = strconv.Itoa(len(questions) + 1)
		}
		if raw := cell(row, cols.errors); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				q.ErrorCount = n
			}
		}
		if q.Prompt == "" {
			return nil, fmt.Errorf("%w: line %d has no question text", domain.ErrQuestionBankMalformed, line)
		}
		if prev, ok := seen[q.ID]; ok {
			return nil, fmt.Errorf("%w: question id %q repeats on lines %d and %d", domain.ErrQuestionBankMalformed, q.ID, prev, line)
		}
		seen[q.ID] = line
		questions = append(questions, q)
	}
	return questions, nil
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{id: -1, prompt: -1, answer: -1, errors: -1, list: -1}
	for i, raw := range header {
		name := normalize(raw)
		switch {
		case in(name, idColumns) && cols.id < 0:
			cols.id = i
		case in(name, promptColumns) && cols.prompt < 0:
			cols.prompt = i
		case in(name, answerColumns) && cols.answer < 0:
			cols.answer = i
		case in(name, errorColumns) && cols.errors < 0:
			cols.errors = i
		case in(name, listColumns) && cols.list < 0:
			cols.list = i
		case isChoiceColumn(name):
			cols.choices = append(cols.choices, i)
		}
	}

	var missing []string
	if cols.prompt < 0 {
		missing = append(missing, "question")
	}
	if cols.list < 0 && len(cols.choices) == 0 {
		missing = append(missing, "choices")
	}
	if cols.answer < 0 {
		missing = append(missing, "answer")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: missing columns %s", domain.ErrQuestionBankMalformed, strings.Join(missing, ", "))
	}
	return cols, nil
}

// isChoiceColumn accepts "A".."H", "1".."9" and the same suffixes behind an
// option/choice prefix, e.g. "option_a", "choice 2", "選項A".
func isChoiceColumn(name string) bool {
	for _, prefix := range choicePrefix {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimLeft(strings.TrimPrefix(name, prefix), "_- ")
			break
		}
	}
	switch name {
	case "a", "b", "c", "d", "e", "f", "g", "h",
		"1", "2", "3", "4", "5", "6", "7", "8", "9",
		"一", "二", "三", "四", "五", "六":
		return true
	}
	return false
}

func choices(row []string, cols columnMap) []string {
	var out []string
	if cols.list >= 0 {
		for _, part := range strings.Split(cell(row, cols.list), "|") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	for _, idx := range cols.choices {
		if v := cell(row, idx); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

func in(name string, names []string) bool {
	for _, n := range names {
		if name == n {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
